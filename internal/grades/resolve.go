package grades

import (
	"fmt"
	"strings"
)

// InterdisciplinaryMarker tags a quiz that counts toward every subject.
// Kept as a literal subject-name sentinel for compatibility with existing
// quiz data; new quizzes should move to a subject-id foreign key.
const InterdisciplinaryMarker = "Interdisciplinario"

// Sources is the raw material resolution works from, typically scoped to a
// single resident.
type Sources struct {
	Subjects     []Subject
	Quizzes      []Quiz
	Attempts     []QuizAttempt
	Evaluations  []Evaluation
	ManualGrades []ManualGradeEntry
}

type compKey struct {
	residentID, subjectID string
	component             Component
}

type quizKey struct{ quizID, residentID string }

// Resolver answers per-component grade questions. Indexes are prebuilt once
// so resolving residents × subjects × 3 components stays cheap.
type Resolver struct {
	subjects       map[string]Subject
	subjectQuizzes map[string][]Quiz // subjectID -> quizzes joined by name or marker
	bestAttempt    map[quizKey]float64
	evaluations    map[compKey][]Evaluation
	manual         map[compKey]ManualGradeEntry
}

func NewResolver(src Sources) *Resolver {
	r := &Resolver{
		subjects:       make(map[string]Subject, len(src.Subjects)),
		subjectQuizzes: make(map[string][]Quiz, len(src.Subjects)),
		bestAttempt:    make(map[quizKey]float64),
		evaluations:    make(map[compKey][]Evaluation),
		manual:         make(map[compKey]ManualGradeEntry, len(src.ManualGrades)),
	}
	for _, s := range src.Subjects {
		r.subjects[s.ID] = s
		for _, q := range src.Quizzes {
			if q.Subject == InterdisciplinaryMarker || strings.EqualFold(q.Subject, s.Name) {
				r.subjectQuizzes[s.ID] = append(r.subjectQuizzes[s.ID], q)
			}
		}
	}
	for _, a := range src.Attempts {
		if a.Status != AttemptSubmitted {
			continue
		}
		k := quizKey{a.QuizID, a.ResidentID}
		// strictly greater: ties keep the attempt seen first
		if best, ok := r.bestAttempt[k]; !ok || a.Score > best {
			r.bestAttempt[k] = a.Score
		}
	}
	for _, e := range src.Evaluations {
		k := compKey{e.ResidentID, e.SubjectID, e.Kind}
		r.evaluations[k] = append(r.evaluations[k], e)
	}
	for _, m := range src.ManualGrades {
		r.manual[compKey{m.ResidentID, m.SubjectID, m.Component}] = m
	}
	return r
}

// Component resolves one grade component. A manual override wins
// unconditionally; otherwise the grade derives from quiz attempts (written)
// or evaluation records (competency/presentation). No data resolves to a nil
// value, not an error.
func (r *Resolver) Component(residentID, subjectID string, c Component) ComponentGrade {
	if m, ok := r.manual[compKey{residentID, subjectID, c}]; ok {
		v := m.Grade
		return ComponentGrade{Value: &v, Manual: true, Detail: m.Comment}
	}
	switch c {
	case ComponentWritten:
		return r.written(residentID, subjectID)
	case ComponentCompetency, ComponentPresentation:
		return r.evaluated(residentID, subjectID, c)
	}
	return ComponentGrade{}
}

func (r *Resolver) written(residentID, subjectID string) ComponentGrade {
	quizzes := r.subjectQuizzes[subjectID]
	if len(quizzes) == 0 {
		return ComponentGrade{}
	}
	sum := 0.0
	n := 0
	details := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		best, ok := r.bestAttempt[quizKey{q.ID, residentID}]
		if !ok {
			details = append(details, q.Title+": Pending")
			continue
		}
		details = append(details, fmt.Sprintf("%s: %.1f", q.Title, best))
		sum += best
		n++
	}
	detail := strings.Join(details, "; ")
	if n == 0 {
		return ComponentGrade{Detail: detail}
	}
	v := sum / float64(n)
	return ComponentGrade{Value: &v, Detail: detail}
}

func (r *Resolver) evaluated(residentID, subjectID string, kind Component) ComponentGrade {
	evs := r.evaluations[compKey{residentID, subjectID, kind}]
	if len(evs) == 0 {
		return ComponentGrade{}
	}
	sum := 0.0
	for _, e := range evs {
		sum += e.AverageScore
	}
	v := sum / float64(len(evs))
	return ComponentGrade{Value: &v, Detail: fmt.Sprintf("average of %d evaluations", len(evs))}
}

// Row builds the derived grade row for one subject. Standard subjects carry
// the 60/30/10 weighting; transversal subjects hold a single direct grade.
func (r *Resolver) Row(residentID string, s Subject) GradeRow {
	row := GradeRow{
		ResidentID:  residentID,
		SubjectID:   s.ID,
		SubjectName: s.Name,
		SubjectType: s.Type,
	}
	if s.Type == SubjectTransversal {
		t := r.Component(residentID, s.ID, ComponentTransversal)
		row.Transversal = &t
		row.Final = t.Value
		if t.Value != nil {
			row.Progress = 100
			row.Status = RowComplete
		} else {
			row.Status = RowNotStarted
		}
		return row
	}

	row.Written = r.Component(residentID, s.ID, ComponentWritten)
	row.Competency = r.Component(residentID, s.ID, ComponentCompetency)
	row.Presentation = r.Component(residentID, s.ID, ComponentPresentation)

	if row.Written.Value != nil {
		row.Progress += 60
	}
	if row.Competency.Value != nil {
		row.Progress += 30
	}
	if row.Presentation.Value != nil {
		row.Progress += 10
	}
	row.Final = ComputeWeighted([]WeightedComponent{
		{Value: row.Written.Value, Weight: WeightWritten},
		{Value: row.Competency.Value, Weight: WeightCompetency},
		{Value: row.Presentation.Value, Weight: WeightPresentation},
	})
	switch row.Progress {
	case 0:
		row.Status = RowNotStarted
	case 100:
		row.Status = RowComplete
	default:
		row.Status = RowPartial
	}
	return row
}

// Rows builds rows for every known subject, in source order.
func (r *Resolver) Rows(residentID string, subjects []Subject) []GradeRow {
	rows := make([]GradeRow, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, r.Row(residentID, s))
	}
	return rows
}
