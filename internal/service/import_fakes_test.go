package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/school-admin-api/internal/models"
)

type fakeTeacherStore struct {
	teachers []models.Teacher
	listErr  error
	creates  int
	updates  int
}

func (f *fakeTeacherStore) ListAll(ctx context.Context) ([]models.Teacher, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Teacher, len(f.teachers))
	copy(out, f.teachers)
	return out, nil
}

func (f *fakeTeacherStore) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	f.teachers = append(f.teachers, *teacher)
	f.creates++
	return nil
}

func (f *fakeTeacherStore) UpdateName(ctx context.Context, id, fullName string) error {
	for i := range f.teachers {
		if f.teachers[i].ID == id {
			f.teachers[i].FullName = fullName
			f.updates++
			return nil
		}
	}
	return errors.New("teacher not found")
}

type fakeStudentStore struct {
	students []models.Student
	creates  int
	updates  int
}

func (f *fakeStudentStore) ListAll(ctx context.Context) ([]models.Student, error) {
	out := make([]models.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeStudentStore) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	f.students = append(f.students, *student)
	f.creates++
	return nil
}

func (f *fakeStudentStore) UpdateYearGroup(ctx context.Context, id string, yearGroupID *string) error {
	for i := range f.students {
		if f.students[i].ID == id {
			f.students[i].YearGroupID = yearGroupID
			f.updates++
			return nil
		}
	}
	return errors.New("student not found")
}

type fakeSubjectStore struct {
	subjects   []models.Subject
	yearGroups []models.YearGroup
}

func (f *fakeSubjectStore) ListAll(ctx context.Context) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeSubjectStore) ListYearGroups(ctx context.Context) ([]models.YearGroup, error) {
	return f.yearGroups, nil
}

type fakeTaxonomyStore struct {
	nodes map[string]string
	calls int
}

func (f *fakeTaxonomyStore) ensure(parts ...string) (string, bool, error) {
	f.calls++
	if f.nodes == nil {
		f.nodes = make(map[string]string)
	}
	key := strings.ToLower(strings.Join(parts, "/"))
	if id, ok := f.nodes[key]; ok {
		return id, false, nil
	}
	id := uuid.NewString()
	f.nodes[key] = id
	return id, true, nil
}

func (f *fakeTaxonomyStore) EnsureQualification(ctx context.Context, name string) (string, bool, error) {
	return f.ensure("q", name)
}

func (f *fakeTaxonomyStore) EnsureExamBoard(ctx context.Context, qualificationID, name string) (string, bool, error) {
	return f.ensure("eb", qualificationID, name)
}

func (f *fakeTaxonomyStore) EnsureSubject(ctx context.Context, qualificationID, examBoardID, name string) (string, bool, error) {
	return f.ensure("s", examBoardID, name)
}

func (f *fakeTaxonomyStore) EnsureTopic(ctx context.Context, subjectID, name string) (string, bool, error) {
	return f.ensure("t", subjectID, name)
}

func (f *fakeTaxonomyStore) EnsureSubtopic(ctx context.Context, topicID, name string) (string, bool, error) {
	return f.ensure("st", topicID, name)
}

// fakeClassStore keeps classes and their child rows in memory.
type fakeClassStore struct {
	classes   map[string]*models.Class
	order     []string
	students  map[string][]string
	schedules map[string][]models.ClassSchedule

	// failCreateOn makes Create fail for the class with this name.
	failCreateOn string
	writes       int
}

func newFakeClassStore() *fakeClassStore {
	return &fakeClassStore{
		classes:   make(map[string]*models.Class),
		students:  make(map[string][]string),
		schedules: make(map[string][]models.ClassSchedule),
	}
}

func (f *fakeClassStore) FindByKey(ctx context.Context, key models.ClassKey) (*models.Class, error) {
	for _, id := range f.order {
		c := f.classes[id]
		if c.Name == key.Name && c.TeacherID == key.TeacherID && c.SubjectID == key.SubjectID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeClassStore) Create(ctx context.Context, class *models.Class) error {
	if f.failCreateOn != "" && class.Name == f.failCreateOn {
		return errors.New("insert failed")
	}
	class.ID = uuid.NewString()
	copied := *class
	f.classes[class.ID] = &copied
	f.order = append(f.order, class.ID)
	f.writes++
	return nil
}

func (f *fakeClassStore) UpdateYearGroup(ctx context.Context, id string, yearGroupID *string) error {
	f.classes[id].YearGroupID = yearGroupID
	f.writes++
	return nil
}

func (f *fakeClassStore) AddStudents(ctx context.Context, classID string, studentIDs []string) error {
	f.students[classID] = append(f.students[classID], studentIDs...)
	f.writes++
	return nil
}

func (f *fakeClassStore) AddSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) error {
	f.schedules[classID] = append(f.schedules[classID], slots...)
	f.writes++
	return nil
}

func (f *fakeClassStore) ReplaceStudents(ctx context.Context, classID string, studentIDs []string) error {
	f.students[classID] = append([]string(nil), studentIDs...)
	f.writes++
	return nil
}

func (f *fakeClassStore) ReplaceSchedules(ctx context.Context, classID string, slots []models.ClassSchedule) error {
	f.schedules[classID] = append([]models.ClassSchedule(nil), slots...)
	f.writes++
	return nil
}

func (f *fakeClassStore) classByName(name string) *models.Class {
	for _, id := range f.order {
		if f.classes[id].Name == name {
			return f.classes[id]
		}
	}
	return nil
}

func (f *fakeClassStore) sortedStudents(classID string) []string {
	out := append([]string(nil), f.students[classID]...)
	sort.Strings(out)
	return out
}

type fakeRecorder struct {
	runs []*models.ImportRun
}

func (f *fakeRecorder) Record(ctx context.Context, run *models.ImportRun) {
	f.runs = append(f.runs, run)
}

func strPtr(s string) *string { return &s }

// schoolFixture seeds a small school: two teachers, three students, two subjects, two year groups.
func schoolFixture() (*fakeTeacherStore, *fakeStudentStore, *fakeSubjectStore) {
	teachers := &fakeTeacherStore{teachers: []models.Teacher{
		{ID: "t-jo", Email: "jo@school.test", FullName: "Jo Smith", Active: true},
		{ID: "t-al", Email: "al@school.test", FullName: "Al Roe", Active: true},
	}}
	students := &fakeStudentStore{students: []models.Student{
		{ID: "s-ann", FullName: "Ann Lee", YearGroupID: strPtr("yg-10"), Active: true},
		{ID: "s-bo", FullName: "Bo Chan", YearGroupID: strPtr("yg-10"), Active: true},
		{ID: "s-cy", FullName: "Cy Dee", YearGroupID: strPtr("yg-11"), Active: true},
	}}
	subjects := &fakeSubjectStore{
		subjects: []models.Subject{
			{ID: "sub-math", Name: "Mathematics", DepartmentID: strPtr("dep-stem")},
			{ID: "sub-eng", Name: "English Literature"},
		},
		yearGroups: []models.YearGroup{{ID: "yg-10", Name: "Year 10"}, {ID: "yg-11", Name: "Year 11"}},
	}
	return teachers, students, subjects
}
