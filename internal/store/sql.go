package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/survey"
)

// SQL persists every collection over database/sql. Placeholders are $n,
// which both the pgx stdlib driver and modernc sqlite accept.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL { return &SQL{db: db} }

// --- roster ---

func (s *SQL) PutResident(ctx context.Context, r grades.Resident) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO residents (id,name,email,cohort_year)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, cohort_year=EXCLUDED.cohort_year`,
		r.ID, r.Name, r.Email, r.CohortYear)
	if err != nil {
		return apperr.Store(err, "put resident")
	}
	return nil
}

func (s *SQL) GetResident(ctx context.Context, id string) (grades.Resident, error) {
	var r grades.Resident
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,email,cohort_year FROM residents WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.Email, &r.CohortYear)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Resident{}, apperr.NotFoundf("resident %s not found", id)
	}
	if err != nil {
		return grades.Resident{}, apperr.Store(err, "get resident")
	}
	return r, nil
}

func (s *SQL) ListResidents(ctx context.Context) ([]grades.Resident, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,email,cohort_year FROM residents ORDER BY name`)
	if err != nil {
		return nil, apperr.Store(err, "list residents")
	}
	defer rows.Close()
	var out []grades.Resident
	for rows.Next() {
		var r grades.Resident
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.CohortYear); err != nil {
			return nil, apperr.Store(err, "scan resident")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQL) PutTeacher(ctx context.Context, t grades.Teacher) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO teachers (id,name,email) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email`,
		t.ID, t.Name, t.Email)
	if err != nil {
		return apperr.Store(err, "put teacher")
	}
	return nil
}

func (s *SQL) GetTeacher(ctx context.Context, id string) (grades.Teacher, error) {
	var t grades.Teacher
	err := s.db.QueryRowContext(ctx, `SELECT id,name,email FROM teachers WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Teacher{}, apperr.NotFoundf("teacher %s not found", id)
	}
	if err != nil {
		return grades.Teacher{}, apperr.Store(err, "get teacher")
	}
	return t, nil
}

func (s *SQL) PutSubject(ctx context.Context, sub grades.Subject) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO subjects (id,name,type,lead_teacher_id)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, type=EXCLUDED.type, lead_teacher_id=EXCLUDED.lead_teacher_id`,
		sub.ID, sub.Name, string(sub.Type), sub.LeadTeacherID)
	if err != nil {
		return apperr.Store(err, "put subject")
	}
	return nil
}

func (s *SQL) GetSubject(ctx context.Context, id string) (grades.Subject, error) {
	var sub grades.Subject
	var typ string
	err := s.db.QueryRowContext(ctx, `SELECT id,name,type,lead_teacher_id FROM subjects WHERE id=$1`, id).
		Scan(&sub.ID, &sub.Name, &typ, &sub.LeadTeacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Subject{}, apperr.NotFoundf("subject %s not found", id)
	}
	if err != nil {
		return grades.Subject{}, apperr.Store(err, "get subject")
	}
	sub.Type = grades.SubjectType(typ)
	return sub, nil
}

func (s *SQL) ListSubjects(ctx context.Context) ([]grades.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,type,lead_teacher_id FROM subjects ORDER BY name`)
	if err != nil {
		return nil, apperr.Store(err, "list subjects")
	}
	defer rows.Close()
	var out []grades.Subject
	for rows.Next() {
		var sub grades.Subject
		var typ string
		if err := rows.Scan(&sub.ID, &sub.Name, &typ, &sub.LeadTeacherID); err != nil {
			return nil, apperr.Store(err, "scan subject")
		}
		sub.Type = grades.SubjectType(typ)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// --- quizzes & attempts ---

func (s *SQL) PutQuiz(ctx context.Context, q grades.Quiz) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,subject) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, subject=EXCLUDED.subject`,
		q.ID, q.Title, q.Subject)
	if err != nil {
		return apperr.Store(err, "put quiz")
	}
	return nil
}

func (s *SQL) GetQuiz(ctx context.Context, id string) (grades.Quiz, error) {
	var q grades.Quiz
	err := s.db.QueryRowContext(ctx, `SELECT id,title,subject FROM quizzes WHERE id=$1`, id).
		Scan(&q.ID, &q.Title, &q.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Quiz{}, apperr.NotFoundf("quiz %s not found", id)
	}
	if err != nil {
		return grades.Quiz{}, apperr.Store(err, "get quiz")
	}
	return q, nil
}

func (s *SQL) ListQuizzes(ctx context.Context) ([]grades.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,subject FROM quizzes ORDER BY title`)
	if err != nil {
		return nil, apperr.Store(err, "list quizzes")
	}
	defer rows.Close()
	var out []grades.Quiz
	for rows.Next() {
		var q grades.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Subject); err != nil {
			return nil, apperr.Store(err, "scan quiz")
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQL) CreateAttempt(ctx context.Context, a grades.QuizAttempt) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_attempts (id,quiz_id,resident_id,score,status,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.QuizID, a.ResidentID, a.Score, a.Status, a.SubmittedAt)
	if err != nil {
		return apperr.Store(err, "create attempt")
	}
	return nil
}

func (s *SQL) ListAttemptsByResident(ctx context.Context, residentID string) ([]grades.QuizAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,resident_id,score,status,submitted_at
		FROM quiz_attempts WHERE resident_id=$1 ORDER BY submitted_at`, residentID)
	if err != nil {
		return nil, apperr.Store(err, "list attempts")
	}
	defer rows.Close()
	var out []grades.QuizAttempt
	for rows.Next() {
		var a grades.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.ResidentID, &a.Score, &a.Status, &a.SubmittedAt); err != nil {
			return nil, apperr.Store(err, "scan attempt")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- evaluations ---

func (s *SQL) PutEvaluation(ctx context.Context, e grades.Evaluation) error {
	dims, err := json.Marshal(e.Dimensions)
	if err != nil {
		return apperr.Store(err, "marshal evaluation dimensions")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO evaluations (id,resident_id,subject_id,kind,average_score,dimensions_json)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET average_score=EXCLUDED.average_score, dimensions_json=EXCLUDED.dimensions_json`,
		e.ID, e.ResidentID, e.SubjectID, string(e.Kind), e.AverageScore, string(dims))
	if err != nil {
		return apperr.Store(err, "put evaluation")
	}
	return nil
}

func (s *SQL) ListEvaluationsByResident(ctx context.Context, residentID string) ([]grades.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,resident_id,subject_id,kind,average_score,dimensions_json
		FROM evaluations WHERE resident_id=$1`, residentID)
	if err != nil {
		return nil, apperr.Store(err, "list evaluations")
	}
	defer rows.Close()
	var out []grades.Evaluation
	for rows.Next() {
		var e grades.Evaluation
		var kind, dims string
		if err := rows.Scan(&e.ID, &e.ResidentID, &e.SubjectID, &kind, &e.AverageScore, &dims); err != nil {
			return nil, apperr.Store(err, "scan evaluation")
		}
		e.Kind = grades.Component(kind)
		if err := json.Unmarshal([]byte(dims), &e.Dimensions); err != nil {
			e.Dimensions = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- manual grades ---

func (s *SQL) UpsertManualGrade(ctx context.Context, e grades.ManualGradeEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO manual_grades (id,resident_id,subject_id,component,grade,comment,author_id,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (resident_id,subject_id,component) DO UPDATE
		SET grade=EXCLUDED.grade, comment=EXCLUDED.comment, author_id=EXCLUDED.author_id, updated_at=EXCLUDED.updated_at`,
		e.ID, e.ResidentID, e.SubjectID, string(e.Component), e.Grade, e.Comment, e.AuthorID, e.UpdatedAt)
	if err != nil {
		return apperr.Store(err, "upsert manual grade")
	}
	return nil
}

func (s *SQL) DeleteManualGrade(ctx context.Context, residentID, subjectID string, c grades.Component) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM manual_grades WHERE resident_id=$1 AND subject_id=$2 AND component=$3`,
		residentID, subjectID, string(c))
	if err != nil {
		return apperr.Store(err, "delete manual grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("no manual %s grade for resident %s in subject %s", c, residentID, subjectID)
	}
	return nil
}

func (s *SQL) ListManualGradesByResident(ctx context.Context, residentID string) ([]grades.ManualGradeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,resident_id,subject_id,component,grade,comment,author_id,updated_at
		FROM manual_grades WHERE resident_id=$1`, residentID)
	if err != nil {
		return nil, apperr.Store(err, "list manual grades")
	}
	defer rows.Close()
	var out []grades.ManualGradeEntry
	for rows.Next() {
		var e grades.ManualGradeEntry
		var comp string
		if err := rows.Scan(&e.ID, &e.ResidentID, &e.SubjectID, &comp, &e.Grade, &e.Comment, &e.AuthorID, &e.UpdatedAt); err != nil {
			return nil, apperr.Store(err, "scan manual grade")
		}
		e.Component = grades.Component(comp)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- actas ---

func (s *SQL) CreateActa(ctx context.Context, a acta.Acta) error {
	snap, err := json.Marshal(a.Snapshot)
	if err != nil {
		return apperr.Store(err, "marshal acta snapshot")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO actas (id,resident_id,subject_id,teacher_id,generated_at,status,snapshot_json,signature_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULL)`,
		a.ID, a.ResidentID, a.SubjectID, a.TeacherID, a.GeneratedAt, string(a.Status), string(snap))
	if isUniqueViolation(err) {
		return apperr.Preconditionf("acta already exists for resident %s in subject %s", a.ResidentID, a.SubjectID)
	}
	if err != nil {
		return apperr.Store(err, "create acta")
	}
	return nil
}

func (s *SQL) scanActa(row interface{ Scan(...interface{}) error }) (acta.Acta, error) {
	var a acta.Acta
	var status, snap string
	var sig sql.NullString
	if err := row.Scan(&a.ID, &a.ResidentID, &a.SubjectID, &a.TeacherID, &a.GeneratedAt, &status, &snap, &sig); err != nil {
		return acta.Acta{}, err
	}
	a.Status = acta.Status(status)
	if err := json.Unmarshal([]byte(snap), &a.Snapshot); err != nil {
		return acta.Acta{}, err
	}
	if sig.Valid && sig.String != "" {
		var sg acta.Signature
		if err := json.Unmarshal([]byte(sig.String), &sg); err == nil {
			a.Signature = &sg
		}
	}
	return a, nil
}

const actaCols = `id,resident_id,subject_id,teacher_id,generated_at,status,snapshot_json,signature_json`

func (s *SQL) GetActa(ctx context.Context, id string) (acta.Acta, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actaCols+` FROM actas WHERE id=$1`, id)
	a, err := s.scanActa(row)
	if errors.Is(err, sql.ErrNoRows) {
		return acta.Acta{}, apperr.NotFoundf("acta %s not found", id)
	}
	if err != nil {
		return acta.Acta{}, apperr.Store(err, "get acta")
	}
	return a, nil
}

func (s *SQL) UpdateActa(ctx context.Context, a acta.Acta) error {
	snap, err := json.Marshal(a.Snapshot)
	if err != nil {
		return apperr.Store(err, "marshal acta snapshot")
	}
	var sig interface{}
	if a.Signature != nil {
		buf, err := json.Marshal(a.Signature)
		if err != nil {
			return apperr.Store(err, "marshal acta signature")
		}
		sig = string(buf)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE actas SET status=$1, snapshot_json=$2, signature_json=$3 WHERE id=$4`,
		string(a.Status), string(snap), sig, a.ID)
	if err != nil {
		return apperr.Store(err, "update acta")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("acta %s not found", a.ID)
	}
	return nil
}

func (s *SQL) ListActasByResident(ctx context.Context, residentID string) ([]acta.Acta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actaCols+` FROM actas WHERE resident_id=$1 ORDER BY generated_at`, residentID)
	if err != nil {
		return nil, apperr.Store(err, "list actas")
	}
	defer rows.Close()
	var out []acta.Acta
	for rows.Next() {
		a, err := s.scanActa(rows)
		if err != nil {
			return nil, apperr.Store(err, "scan acta")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- exams ---

func (s *SQL) CreateExam(ctx context.Context, e exams.Exam) error {
	return s.writeExam(ctx, e, true)
}

func (s *SQL) UpdateExam(ctx context.Context, e exams.Exam) error {
	return s.writeExam(ctx, e, false)
}

func (s *SQL) writeExam(ctx context.Context, e exams.Exam, create bool) error {
	commission, err := json.Marshal(e.Commission)
	if err != nil {
		return apperr.Store(err, "marshal exam commission")
	}
	topics, err := json.Marshal(e.Topics)
	if err != nil {
		return apperr.Store(err, "marshal exam topics")
	}
	dims, err := json.Marshal(e.Dimensions)
	if err != nil {
		return apperr.Store(err, "marshal exam dimensions")
	}
	var grade interface{}
	if e.Grade != nil {
		grade = *e.Grade
	}
	if create {
		_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,kind,resident_id,date,commission_json,topics_json,dimensions_json,grade,result,status,comments)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			e.ID, string(e.Kind), e.ResidentID, e.Date, string(commission), string(topics), string(dims), grade, e.Result, string(e.Status), e.Comments)
		if err != nil {
			return apperr.Store(err, "create exam")
		}
		return nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE exams SET dimensions_json=$1, grade=$2, result=$3, status=$4, comments=$5 WHERE id=$6`,
		string(dims), grade, e.Result, string(e.Status), e.Comments, e.ID)
	if err != nil {
		return apperr.Store(err, "update exam")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("exam %s not found", e.ID)
	}
	return nil
}

func (s *SQL) scanExam(row interface{ Scan(...interface{}) error }) (exams.Exam, error) {
	var e exams.Exam
	var kind, commission, topics, dims, status string
	var grade sql.NullFloat64
	if err := row.Scan(&e.ID, &kind, &e.ResidentID, &e.Date, &commission, &topics, &dims, &grade, &e.Result, &status, &e.Comments); err != nil {
		return exams.Exam{}, err
	}
	e.Kind = exams.Kind(kind)
	e.Status = exams.Status(status)
	if grade.Valid {
		g := grade.Float64
		e.Grade = &g
	}
	if err := json.Unmarshal([]byte(commission), &e.Commission); err != nil {
		return exams.Exam{}, err
	}
	if err := json.Unmarshal([]byte(topics), &e.Topics); err != nil {
		return exams.Exam{}, err
	}
	if err := json.Unmarshal([]byte(dims), &e.Dimensions); err != nil {
		return exams.Exam{}, err
	}
	return e, nil
}

const examCols = `id,kind,resident_id,date,commission_json,topics_json,dimensions_json,grade,result,status,comments`

func (s *SQL) GetExam(ctx context.Context, id string) (exams.Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+examCols+` FROM exams WHERE id=$1`, id)
	e, err := s.scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return exams.Exam{}, apperr.NotFoundf("exam %s not found", id)
	}
	if err != nil {
		return exams.Exam{}, apperr.Store(err, "get exam")
	}
	return e, nil
}

func (s *SQL) ListExamsByResident(ctx context.Context, residentID string, kind exams.Kind) ([]exams.Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+examCols+` FROM exams WHERE resident_id=$1 AND kind=$2 ORDER BY date`, residentID, string(kind))
	if err != nil {
		return nil, apperr.Store(err, "list exams")
	}
	defer rows.Close()
	var out []exams.Exam
	for rows.Next() {
		e, err := s.scanExam(rows)
		if err != nil {
			return nil, apperr.Store(err, "scan exam")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- surveys ---

func (s *SQL) CreateSurvey(ctx context.Context, sv survey.Survey) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO surveys (id,resident_id,subject_id,teacher_id,status,requested_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sv.ID, sv.ResidentID, sv.SubjectID, sv.TeacherID, sv.Status, sv.RequestedAt)
	if err != nil {
		return apperr.Store(err, "create survey")
	}
	return nil
}

func (s *SQL) ListSurveys(ctx context.Context, status string) ([]survey.Survey, error) {
	q := `SELECT id,resident_id,subject_id,teacher_id,status,requested_at FROM surveys`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY requested_at`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Store(err, "list surveys")
	}
	defer rows.Close()
	var out []survey.Survey
	for rows.Next() {
		var sv survey.Survey
		if err := rows.Scan(&sv.ID, &sv.ResidentID, &sv.SubjectID, &sv.TeacherID, &sv.Status, &sv.RequestedAt); err != nil {
			return nil, apperr.Store(err, "scan survey")
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// --- users ---

func (s *SQL) UpsertUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id,username,password_hash,role)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash, role=EXCLUDED.role`,
		u.ID, u.Username, u.PasswordHash, u.Role)
	if err != nil {
		return apperr.Store(err, "upsert user")
	}
	return nil
}

func (s *SQL) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id,username,password_hash,role FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFoundf("user %s not found", username)
	}
	if err != nil {
		return User{}, apperr.Store(err, "get user")
	}
	return u, nil
}
