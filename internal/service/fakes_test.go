package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
)

type fakeCLORepo struct {
	clos     map[int64]*models.CLO
	next     int64
	mappings map[int64]int
	items    map[int64]int
	deleted  []int64
}

func newFakeCLORepo(clos ...models.CLO) *fakeCLORepo {
	repo := &fakeCLORepo{clos: map[int64]*models.CLO{}, mappings: map[int64]int{}, items: map[int64]int{}}
	for i := range clos {
		clo := clos[i]
		repo.clos[clo.ID] = &clo
		if clo.ID > repo.next {
			repo.next = clo.ID
		}
	}
	return repo
}

func (f *fakeCLORepo) FindByID(_ context.Context, id int64) (*models.CLO, error) {
	clo, ok := f.clos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *clo
	return &cp, nil
}

func (f *fakeCLORepo) ListByCourse(_ context.Context, courseID int64) ([]models.CLO, error) {
	var out []models.CLO
	for _, clo := range f.clos {
		if clo.CourseID == courseID {
			out = append(out, *clo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeCLORepo) CodeExists(_ context.Context, courseID int64, code string, excludeID int64) (bool, error) {
	for _, clo := range f.clos {
		if clo.CourseID == courseID && clo.Code == code && clo.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCLORepo) Create(_ context.Context, clo *models.CLO) error {
	f.next++
	clo.ID = f.next
	cp := *clo
	f.clos[clo.ID] = &cp
	return nil
}

func (f *fakeCLORepo) Update(_ context.Context, clo *models.CLO) error {
	cp := *clo
	f.clos[clo.ID] = &cp
	return nil
}

func (f *fakeCLORepo) Delete(_ context.Context, id int64) error {
	delete(f.clos, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCLORepo) CountReferences(_ context.Context, id int64) (int, int, error) {
	return f.mappings[id], f.items[id], nil
}

type fakePLORepo struct {
	plos     map[int64]*models.PLO
	next     int64
	mappings map[int64]int
}

func newFakePLORepo(plos ...models.PLO) *fakePLORepo {
	repo := &fakePLORepo{plos: map[int64]*models.PLO{}, mappings: map[int64]int{}}
	for i := range plos {
		plo := plos[i]
		repo.plos[plo.ID] = &plo
		if plo.ID > repo.next {
			repo.next = plo.ID
		}
	}
	return repo
}

func (f *fakePLORepo) FindByID(_ context.Context, id int64) (*models.PLO, error) {
	plo, ok := f.plos[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *plo
	return &cp, nil
}

func (f *fakePLORepo) ListByProgram(_ context.Context, programID int64) ([]models.PLO, error) {
	var out []models.PLO
	for _, plo := range f.plos {
		if plo.ProgramID == programID {
			out = append(out, *plo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakePLORepo) CodeExists(_ context.Context, programID int64, code string, excludeID int64) (bool, error) {
	for _, plo := range f.plos {
		if plo.ProgramID == programID && plo.Code == code && plo.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePLORepo) Create(_ context.Context, plo *models.PLO) error {
	f.next++
	plo.ID = f.next
	cp := *plo
	f.plos[plo.ID] = &cp
	return nil
}

func (f *fakePLORepo) Update(_ context.Context, plo *models.PLO) error {
	cp := *plo
	f.plos[plo.ID] = &cp
	return nil
}

func (f *fakePLORepo) Delete(_ context.Context, id int64) error {
	delete(f.plos, id)
	return nil
}

func (f *fakePLORepo) CountMappings(_ context.Context, id int64) (int, error) {
	return f.mappings[id], nil
}

type fakeAcademic struct {
	courses        map[int64]bool
	programs       map[int64]bool
	coursePrograms map[int64][]int64
	offerings      map[int64]models.CourseOffering
	sections       map[int64]models.Section
	faculty        map[int64]models.Faculty
	enrollments    map[int64]map[int64]bool
}

func newFakeAcademic() *fakeAcademic {
	return &fakeAcademic{
		courses:        map[int64]bool{},
		programs:       map[int64]bool{},
		coursePrograms: map[int64][]int64{},
		offerings:      map[int64]models.CourseOffering{},
		sections:       map[int64]models.Section{},
		faculty:        map[int64]models.Faculty{},
		enrollments:    map[int64]map[int64]bool{},
	}
}

func (f *fakeAcademic) CourseExists(_ context.Context, id int64) (bool, error) {
	return f.courses[id], nil
}

func (f *fakeAcademic) ProgramExists(_ context.Context, id int64) (bool, error) {
	return f.programs[id], nil
}

func (f *fakeAcademic) ProgramIDsForCourse(_ context.Context, courseID int64) ([]int64, error) {
	return f.coursePrograms[courseID], nil
}

func (f *fakeAcademic) FindCourseOffering(_ context.Context, id int64) (*models.CourseOffering, error) {
	offering, ok := f.offerings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &offering, nil
}

func (f *fakeAcademic) FindSection(_ context.Context, id int64) (*models.Section, error) {
	section, ok := f.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &section, nil
}

func (f *fakeAcademic) FindFacultyByUserID(_ context.Context, userID int64) (*models.Faculty, error) {
	faculty, ok := f.faculty[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &faculty, nil
}

func (f *fakeAcademic) EnrolledStudents(_ context.Context, sectionID int64, studentIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range studentIDs {
		if f.enrollments[sectionID][id] {
			out[id] = true
		}
	}
	return out, nil
}

type fakeMappingRepo struct {
	mappings map[int64]*models.CLOPLOMapping
	next     int64
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{mappings: map[int64]*models.CLOPLOMapping{}}
}

func (f *fakeMappingRepo) FindByID(_ context.Context, id int64) (*models.CLOPLOMapping, error) {
	mapping, ok := f.mappings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *mapping
	return &cp, nil
}

func (f *fakeMappingRepo) List(_ context.Context, filter models.MappingFilter) ([]models.CLOPLOMapping, error) {
	var out []models.CLOPLOMapping
	for _, m := range f.mappings {
		if filter.CLOID > 0 && m.CLOID != filter.CLOID {
			continue
		}
		if filter.PLOID > 0 && m.PLOID != filter.PLOID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeMappingRepo) Exists(_ context.Context, cloID, ploID int64) (bool, error) {
	for _, m := range f.mappings {
		if m.CLOID == cloID && m.PLOID == ploID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMappingRepo) Create(_ context.Context, mapping *models.CLOPLOMapping) error {
	f.next++
	mapping.ID = f.next
	cp := *mapping
	f.mappings[mapping.ID] = &cp
	return nil
}

func (f *fakeMappingRepo) UpdateWeight(_ context.Context, id int64, weight float64) error {
	f.mappings[id].Weight = weight
	return nil
}

func (f *fakeMappingRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.mappings[id]; !ok {
		return false, nil
	}
	delete(f.mappings, id)
	return true, nil
}

func (f *fakeMappingRepo) ListByPLO(_ context.Context, ploID int64) ([]models.MappedCLO, error) {
	var out []models.MappedCLO
	for _, m := range f.mappings {
		if m.PLOID == ploID {
			out = append(out, models.MappedCLO{CLOID: m.CLOID, CLOCode: m.CLOCode, Weight: m.Weight})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CLOCode < out[j].CLOCode })
	return out, nil
}

type fakeAssessmentRepo struct {
	assessments map[int64]*models.Assessment
	next        int64
	nextItem    int64
}

func newFakeAssessmentRepo(assessments ...models.Assessment) *fakeAssessmentRepo {
	repo := &fakeAssessmentRepo{assessments: map[int64]*models.Assessment{}}
	for i := range assessments {
		a := assessments[i]
		repo.assessments[a.ID] = &a
		if a.ID > repo.next {
			repo.next = a.ID
		}
		for _, item := range a.Items {
			if item.ID > repo.nextItem {
				repo.nextItem = item.ID
			}
		}
	}
	return repo
}

func (f *fakeAssessmentRepo) FindByID(_ context.Context, id int64) (*models.Assessment, error) {
	a, ok := f.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	cp.Items = append([]models.AssessmentItem(nil), a.Items...)
	return &cp, nil
}

func (f *fakeAssessmentRepo) ListByOffering(_ context.Context, courseOfferingID int64) ([]models.Assessment, error) {
	var out []models.Assessment
	for _, a := range f.assessments {
		if a.CourseOfferingID == courseOfferingID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) Create(_ context.Context, assessment *models.Assessment) error {
	f.next++
	assessment.ID = f.next
	cp := *assessment
	f.assessments[assessment.ID] = &cp
	return nil
}

func (f *fakeAssessmentRepo) UpdateStatus(_ context.Context, id int64, status models.AssessmentStatus) error {
	f.assessments[id].Status = status
	return nil
}

func (f *fakeAssessmentRepo) AddItem(_ context.Context, item *models.AssessmentItem) error {
	f.nextItem++
	item.ID = f.nextItem
	a := f.assessments[item.AssessmentID]
	item.Position = len(a.Items) + 1
	a.Items = append(a.Items, *item)
	return nil
}

type fakeResultRepo struct {
	results   map[int64]*models.StudentAssessmentResult
	next      int64
	createErr error
	batches   int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: map[int64]*models.StudentAssessmentResult{}}
}

func (f *fakeResultRepo) CreateBulk(_ context.Context, results []*models.StudentAssessmentResult, replace bool) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range results {
		for id, existing := range f.results {
			if existing.StudentID == r.StudentID && existing.AssessmentID == r.AssessmentID {
				if !replace {
					return repository.ErrDuplicate
				}
				delete(f.results, id)
			}
		}
	}
	for _, r := range results {
		f.next++
		r.ID = f.next
		cp := *r
		f.results[r.ID] = &cp
	}
	f.batches++
	return nil
}

func (f *fakeResultRepo) FindByID(_ context.Context, id int64) (*models.StudentAssessmentResult, error) {
	r, ok := f.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResultRepo) List(_ context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error) {
	var out []models.StudentAssessmentResult
	for _, r := range f.results {
		if filter.AssessmentID > 0 && r.AssessmentID != filter.AssessmentID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeResultRepo) Update(_ context.Context, id int64, update models.ResultUpdate) error {
	r := f.results[id]
	if update.Status != nil {
		r.Status = *update.Status
	}
	if update.Remarks != nil {
		r.Remarks = update.Remarks
	}
	return nil
}

func (f *fakeResultRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.results[id]; !ok {
		return false, nil
	}
	delete(f.results, id)
	return true, nil
}

type fakeScores struct {
	byOffering map[[2]int64][]models.ItemScore
	bySemester map[[2]int64][]models.ItemScore
}

func (f *fakeScores) ItemScoresForOffering(_ context.Context, cloID, courseOfferingID int64) ([]models.ItemScore, error) {
	return f.byOffering[[2]int64{cloID, courseOfferingID}], nil
}

func (f *fakeScores) ItemScoresForSemester(_ context.Context, cloID, semesterID int64) ([]models.ItemScore, error) {
	return f.bySemester[[2]int64{cloID, semesterID}], nil
}

// fakeCache records invalidations and keeps JSON snapshots in memory.
type fakeCache struct {
	store       map[string][]byte
	invalidated []string
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, pattern string) error {
	f.invalidated = append(f.invalidated, pattern)
	f.store = map[string][]byte{}
	return nil
}

type emittedEvent struct {
	Type    string
	ActorID int64
	Payload interface{}
}

type fakeEmitter struct {
	events []emittedEvent
}

func (f *fakeEmitter) Emit(_ context.Context, eventType string, actorID int64, payload interface{}) {
	f.events = append(f.events, emittedEvent{Type: eventType, ActorID: actorID, Payload: payload})
}
