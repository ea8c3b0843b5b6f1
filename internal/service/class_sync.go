package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
)

// ClassSession is one raw day/time pair taken from a schedule row.
type ClassSession struct {
	Line int
	Day  string
	Time string
}

// ClassMember is a student name with the first row that listed it.
type ClassMember struct {
	Line int
	Name string
}

// ClassGroup gathers every marked session of one class taught by one staff member.
type ClassGroup struct {
	Title string
	// Staff is the Staff field of the first row seen for the group.
	Staff string
	// Teacher is the first comma-separated entry of Staff.
	Teacher string
	// Subject is the first non-empty Class Subject seen for the group.
	Subject string
	// YearGroup is the label extracted from the title, empty when the title names none.
	YearGroup string
	Line      int
	Students  []ClassMember
	Sessions  []ClassSession
}

// GroupScheduleRows groups rows by (class title, teacher), ignoring case, in first-seen order.
// The teacher is the first Staff entry, so co-taught rows join the lead teacher's class.
// Students and sessions are deduplicated within each group.
func GroupScheduleRows(rows []dto.ScheduleRow) []*ClassGroup {
	groups := make([]*ClassGroup, 0)
	byKey := make(map[string]*ClassGroup)
	students := make(map[*ClassGroup]map[string]struct{})
	sessions := make(map[*ClassGroup]map[string]struct{})

	for _, row := range rows {
		teacher := firstStaffMember(row.Staff)
		key := foldKey(row.ClassTitle) + "\x00" + foldKey(teacher)
		group, ok := byKey[key]
		if !ok {
			group = &ClassGroup{
				Title:   strings.TrimSpace(row.ClassTitle),
				Staff:   strings.TrimSpace(row.Staff),
				Teacher: teacher,
				Line:    row.Line,
			}
			if forms, found := NormalizeYearGroup(row.ClassTitle); found {
				group.YearGroup = forms[0]
			}
			byKey[key] = group
			students[group] = make(map[string]struct{})
			sessions[group] = make(map[string]struct{})
			groups = append(groups, group)
		}
		if group.Subject == "" {
			group.Subject = strings.TrimSpace(row.ClassSubject)
		}
		for _, name := range row.Students {
			k := foldKey(name)
			if _, dup := students[group][k]; dup {
				continue
			}
			students[group][k] = struct{}{}
			group.Students = append(group.Students, ClassMember{Line: row.Line, Name: name})
		}
		sk := foldKey(row.Day) + "\x00" + foldKey(row.Time)
		if _, dup := sessions[group][sk]; !dup {
			sessions[group][sk] = struct{}{}
			group.Sessions = append(group.Sessions, ClassSession{Line: row.Line, Day: row.Day, Time: row.Time})
		}
	}
	return groups
}

func firstStaffMember(staff string) string {
	if names := dto.SplitNames(staff); len(names) > 0 {
		return names[0]
	}
	return strings.TrimSpace(staff)
}

type classStore interface {
	FindByKey(ctx context.Context, key models.ClassKey) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	UpdateYearGroup(ctx context.Context, id string, yearGroupID *string) error
	AddStudents(ctx context.Context, classID string, studentIDs []string) error
	AddSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) error
	ReplaceStudents(ctx context.Context, classID string, studentIDs []string) error
	ReplaceSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) error
}

// SyncOutcome reports what happened to one class group.
type SyncOutcome struct {
	Skipped          bool
	Created          bool
	Updated          bool
	SchedulesCreated int
	StudentsLinked   int
	Errors           []string
}

// ClassSynchronizer makes a stored class mirror one imported class group.
type ClassSynchronizer struct {
	classes classStore
	logger  *zap.Logger
}

// NewClassSynchronizer constructs a ClassSynchronizer.
func NewClassSynchronizer(classes classStore, logger *zap.Logger) *ClassSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassSynchronizer{classes: classes, logger: logger}
}

// Sync resolves the group against refs and creates or replaces the class.
// Unresolvable teachers or subjects skip the group; unknown students and bad slots
// are dropped individually. Only data-access failures are returned as errors.
func (s *ClassSynchronizer) Sync(ctx context.Context, group *ClassGroup, refs *ReferenceSet, actorID string) (SyncOutcome, error) {
	var out SyncOutcome

	teacherID, ok := refs.ResolveTeacher(group.Teacher)
	if !ok {
		out.Skipped = true
		out.Errors = append(out.Errors, fmt.Sprintf("Row %d: %s (class %q)", group.Line, notFoundMessage("Teacher", group.Teacher, refs.Teachers), group.Title))
		return out, nil
	}
	if group.Subject == "" {
		out.Skipped = true
		out.Errors = append(out.Errors, fmt.Sprintf("Row %d: Class Subject is empty for class %q", group.Line, group.Title))
		return out, nil
	}
	subjectID, ok := refs.ResolveSubject(group.Subject)
	if !ok {
		out.Skipped = true
		out.Errors = append(out.Errors, fmt.Sprintf("Row %d: %s (class %q)", group.Line, notFoundMessage("Subject", group.Subject, refs.Subjects), group.Title))
		return out, nil
	}

	var yearGroupID *string
	if group.YearGroup != "" {
		if id, found := refs.ResolveYearGroup(group.YearGroup); found {
			yearGroupID = &id
		}
	}

	studentIDs := make([]string, 0, len(group.Students))
	seenStudents := make(map[string]struct{}, len(group.Students))
	for _, member := range group.Students {
		id, found := refs.ResolveStudent(member.Name)
		if !found {
			out.Errors = append(out.Errors, fmt.Sprintf("Row %d: %s", member.Line, notFoundMessage("Student", member.Name, refs.Students)))
			continue
		}
		if _, dup := seenStudents[id]; dup {
			continue
		}
		seenStudents[id] = struct{}{}
		studentIDs = append(studentIDs, id)
	}

	slots, slotErrors := parseSessions(group.Sessions)
	out.Errors = append(out.Errors, slotErrors...)

	existing, err := s.classes.FindByKey(ctx, models.ClassKey{Name: group.Title, TeacherID: teacherID, SubjectID: subjectID})
	if err != nil {
		return out, err
	}

	if existing == nil {
		class := &models.Class{
			Name:         group.Title,
			TeacherID:    teacherID,
			SubjectID:    subjectID,
			YearGroupID:  yearGroupID,
			DepartmentID: refs.SubjectDepartment(subjectID),
		}
		if actorID != "" {
			class.CreatedBy = &actorID
		}
		if err := s.classes.Create(ctx, class); err != nil {
			return out, err
		}
		if len(studentIDs) > 0 {
			if err := s.classes.AddStudents(ctx, class.ID, studentIDs); err != nil {
				return out, err
			}
		}
		if len(slots) > 0 {
			if err := s.classes.AddSchedules(ctx, class.ID, slots); err != nil {
				return out, err
			}
		}
		s.logger.Debug("class created", zap.String("class_id", class.ID), zap.String("name", class.Name))
		out.Created = true
	} else {
		if yearGroupID != nil && !sameID(existing.YearGroupID, yearGroupID) {
			if err := s.classes.UpdateYearGroup(ctx, existing.ID, yearGroupID); err != nil {
				return out, err
			}
		}
		if err := s.classes.ReplaceStudents(ctx, existing.ID, studentIDs); err != nil {
			return out, err
		}
		if err := s.classes.ReplaceSchedules(ctx, existing.ID, slots); err != nil {
			return out, err
		}
		s.logger.Debug("class replaced", zap.String("class_id", existing.ID), zap.String("name", existing.Name))
		out.Updated = true
	}

	out.StudentsLinked = len(studentIDs)
	out.SchedulesCreated = len(slots)
	return out, nil
}

// parseSessions converts raw sessions into slots, dropping unparseable ones and
// duplicates that normalise to the same (day, start, end).
func parseSessions(sessions []ClassSession) ([]models.ClassSchedule, []string) {
	slots := make([]models.ClassSchedule, 0, len(sessions))
	var errs []string
	seen := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		day, ok := ParseDayOfWeek(session.Day)
		if !ok {
			errs = append(errs, fmt.Sprintf("Row %d: invalid day %q", session.Line, session.Day))
			continue
		}
		window, ok := ParseTimeRange(session.Time)
		if !ok {
			errs = append(errs, fmt.Sprintf("Row %d: invalid time range %q", session.Line, session.Time))
			continue
		}
		key := fmt.Sprintf("%d|%s|%s", day, window.Start, window.End)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		slots = append(slots, models.ClassSchedule{DayOfWeek: day, StartTime: window.Start, EndTime: window.End})
	}
	return slots, errs
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
