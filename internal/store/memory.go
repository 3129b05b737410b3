package store

import (
	"context"
	"sync"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/survey"
)

type manualKey struct {
	residentID, subjectID string
	component             grades.Component
}

type pairKey struct{ residentID, subjectID string }

// Memory keeps everything in maps behind one RWMutex. Good enough for the
// offline mode and for tests; the SQL store is the deployment path.
type Memory struct {
	mu           sync.RWMutex
	residents    map[string]grades.Resident
	teachers     map[string]grades.Teacher
	subjects     map[string]grades.Subject
	subjectOrder []string
	quizzes      map[string]grades.Quiz
	quizOrder    []string
	attempts     []grades.QuizAttempt
	evaluations  []grades.Evaluation
	manual       map[manualKey]grades.ManualGradeEntry
	actas        map[string]acta.Acta
	actaByPair   map[pairKey]string
	exams        map[string]exams.Exam
	surveys      map[string]survey.Survey
	users        map[string]User // by username
}

func NewMemory() *Memory {
	return &Memory{
		residents:  map[string]grades.Resident{},
		teachers:   map[string]grades.Teacher{},
		subjects:   map[string]grades.Subject{},
		quizzes:    map[string]grades.Quiz{},
		manual:     map[manualKey]grades.ManualGradeEntry{},
		actas:      map[string]acta.Acta{},
		actaByPair: map[pairKey]string{},
		exams:      map[string]exams.Exam{},
		surveys:    map[string]survey.Survey{},
		users:      map[string]User{},
	}
}

// --- roster ---

func (m *Memory) PutResident(_ context.Context, r grades.Resident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.residents[r.ID] = r
	return nil
}

func (m *Memory) GetResident(_ context.Context, id string) (grades.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.residents[id]
	if !ok {
		return grades.Resident{}, apperr.NotFoundf("resident %s not found", id)
	}
	return r, nil
}

func (m *Memory) ListResidents(_ context.Context) ([]grades.Resident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]grades.Resident, 0, len(m.residents))
	for _, r := range m.residents {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) PutTeacher(_ context.Context, t grades.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teachers[t.ID] = t
	return nil
}

func (m *Memory) GetTeacher(_ context.Context, id string) (grades.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teachers[id]
	if !ok {
		return grades.Teacher{}, apperr.NotFoundf("teacher %s not found", id)
	}
	return t, nil
}

func (m *Memory) PutSubject(_ context.Context, s grades.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[s.ID]; !ok {
		m.subjectOrder = append(m.subjectOrder, s.ID)
	}
	m.subjects[s.ID] = s
	return nil
}

func (m *Memory) GetSubject(_ context.Context, id string) (grades.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[id]
	if !ok {
		return grades.Subject{}, apperr.NotFoundf("subject %s not found", id)
	}
	return s, nil
}

func (m *Memory) ListSubjects(_ context.Context) ([]grades.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]grades.Subject, 0, len(m.subjectOrder))
	for _, id := range m.subjectOrder {
		out = append(out, m.subjects[id])
	}
	return out, nil
}

// --- quizzes & attempts ---

func (m *Memory) PutQuiz(_ context.Context, q grades.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[q.ID]; !ok {
		m.quizOrder = append(m.quizOrder, q.ID)
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *Memory) GetQuiz(_ context.Context, id string) (grades.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return grades.Quiz{}, apperr.NotFoundf("quiz %s not found", id)
	}
	return q, nil
}

func (m *Memory) ListQuizzes(_ context.Context) ([]grades.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]grades.Quiz, 0, len(m.quizOrder))
	for _, id := range m.quizOrder {
		out = append(out, m.quizzes[id])
	}
	return out, nil
}

func (m *Memory) CreateAttempt(_ context.Context, a grades.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *Memory) ListAttemptsByResident(_ context.Context, residentID string) ([]grades.QuizAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []grades.QuizAttempt
	for _, a := range m.attempts {
		if a.ResidentID == residentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- evaluations ---

func (m *Memory) PutEvaluation(_ context.Context, e grades.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, e)
	return nil
}

func (m *Memory) ListEvaluationsByResident(_ context.Context, residentID string) ([]grades.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []grades.Evaluation
	for _, e := range m.evaluations {
		if e.ResidentID == residentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- manual grades ---

func (m *Memory) UpsertManualGrade(_ context.Context, e grades.ManualGradeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := manualKey{e.ResidentID, e.SubjectID, e.Component}
	if prev, ok := m.manual[k]; ok {
		e.ID = prev.ID
	}
	m.manual[k] = e
	return nil
}

func (m *Memory) DeleteManualGrade(_ context.Context, residentID, subjectID string, c grades.Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := manualKey{residentID, subjectID, c}
	if _, ok := m.manual[k]; !ok {
		return apperr.NotFoundf("no manual %s grade for resident %s in subject %s", c, residentID, subjectID)
	}
	delete(m.manual, k)
	return nil
}

func (m *Memory) ListManualGradesByResident(_ context.Context, residentID string) ([]grades.ManualGradeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []grades.ManualGradeEntry
	for _, e := range m.manual {
		if e.ResidentID == residentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- actas ---

func (m *Memory) CreateActa(_ context.Context, a acta.Acta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := pairKey{a.ResidentID, a.SubjectID}
	if _, ok := m.actaByPair[pk]; ok {
		return apperr.Preconditionf("acta already exists for resident %s in subject %s", a.ResidentID, a.SubjectID)
	}
	m.actas[a.ID] = a
	m.actaByPair[pk] = a.ID
	return nil
}

func (m *Memory) GetActa(_ context.Context, id string) (acta.Acta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actas[id]
	if !ok {
		return acta.Acta{}, apperr.NotFoundf("acta %s not found", id)
	}
	return a, nil
}

func (m *Memory) UpdateActa(_ context.Context, a acta.Acta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actas[a.ID]; !ok {
		return apperr.NotFoundf("acta %s not found", a.ID)
	}
	m.actas[a.ID] = a
	return nil
}

func (m *Memory) ListActasByResident(_ context.Context, residentID string) ([]acta.Acta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []acta.Acta
	for _, a := range m.actas {
		if a.ResidentID == residentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- exams ---

func (m *Memory) CreateExam(_ context.Context, e exams.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *Memory) GetExam(_ context.Context, id string) (exams.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return exams.Exam{}, apperr.NotFoundf("exam %s not found", id)
	}
	return e, nil
}

func (m *Memory) UpdateExam(_ context.Context, e exams.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[e.ID]; !ok {
		return apperr.NotFoundf("exam %s not found", e.ID)
	}
	m.exams[e.ID] = e
	return nil
}

func (m *Memory) ListExamsByResident(_ context.Context, residentID string, kind exams.Kind) ([]exams.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []exams.Exam
	for _, e := range m.exams {
		if e.ResidentID == residentID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- surveys ---

func (m *Memory) CreateSurvey(_ context.Context, s survey.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surveys[s.ID] = s
	return nil
}

func (m *Memory) ListSurveys(_ context.Context, status string) ([]survey.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []survey.Survey
	for _, s := range m.surveys {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- users ---

func (m *Memory) UpsertUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
	return nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return User{}, apperr.NotFoundf("user %s not found", username)
	}
	return u, nil
}
