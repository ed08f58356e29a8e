package attendance

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/staff"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("attendance record not found")
	ErrRecordExists = errors.New("attendance was already logged for this staff member on this date")

	errUnknownStaff = "unknown staff member"
)

const absenceNoticeTemplate = "absence_notice"

type (
	Repository interface {
		// Create fails with ErrRecordExists when the staff member already has a record on that date.
		Create(ctx context.Context, r Record) (Record, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Update(ctx context.Context, r Record) (Record, error)
		Delete(ctx context.Context, ids ...string) error
	}

	// StaffDirectory resolves the staff members records refer to.
	StaffDirectory interface {
		GetByID(ctx context.Context, id string) (staff.Staff, error)
	}

	Service interface {
		Log(ctx context.Context, nr NewRecord) (Record, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		Update(ctx context.Context, id string, ur UpdateRecord) (Record, error)
		Delete(ctx context.Context, ids ...string) error
		Summarize(ctx context.Context, filter QueryFilter) ([]Summary, error)
	}

	service struct {
		repo    Repository
		staff   StaffDirectory
		mailSvc core.EmailService
		logger  core.Logger
	}

	absenceNoticeData struct {
		Name string
		Date string
		Note string
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, staffDir StaffDirectory, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{repo: repo, staff: staffDir, mailSvc: mailSvc, logger: logger}
}

func (svc *service) Log(ctx context.Context, nr NewRecord) (Record, error) {
	member, err := svc.staff.GetByID(ctx, nr.StaffID)
	if err != nil {
		if core.IsNotFound(err) {
			return Record{}, core.NewValidationError(nil, core.FieldError{Field: "staff_id", Error: errUnknownStaff})
		}
		return Record{}, errors.Wrap(err, "getting staff member")
	}

	now := time.Now().UTC()
	rec, err := svc.repo.Create(ctx, Record{
		StaffID:   member.ID,
		Date:      nr.Date,
		Status:    nr.Status,
		CheckIn:   nr.CheckIn,
		CheckOut:  nr.CheckOut,
		Note:      nr.Note,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrRecordExists {
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: ErrRecordExists.Error()})
		}
		return Record{}, errors.Wrap(err, "creating attendance record")
	}

	if rec.Status == StatusAbsent {
		svc.sendAbsenceNotice(member, rec)
	}
	return rec, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetByID(ctx, core.CleanString(id))
}

func (svc *service) Update(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	orig, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting attendance record")
	}

	rec := orig
	rec.Status = ur.Status
	rec.CheckIn = ur.CheckIn
	rec.CheckOut = ur.CheckOut
	rec.Note = ur.Note
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.Update(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "updating attendance record")
	}

	if rec.Status == StatusAbsent && orig.Status != StatusAbsent {
		if member, err := svc.staff.GetByID(ctx, rec.StaffID); err == nil {
			svc.sendAbsenceNotice(member, rec)
		} else if svc.logger != nil {
			svc.logger.Warn("absence notice not sent", errors.Wrap(err, "getting staff member"))
		}
	}
	return rec, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return svc.repo.Delete(ctx, ids...)
}

// Summarize aggregates the records matching `filter` per staff member, sorted by staff ID.
func (svc *service) Summarize(ctx context.Context, filter QueryFilter) ([]Summary, error) {
	filter.Clean()
	records, err := svc.repo.Query(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}

	byStaff := make(map[string]*Summary)
	for _, r := range records {
		s, ok := byStaff[r.StaffID]
		if !ok {
			s = &Summary{StaffID: r.StaffID}
			byStaff[r.StaffID] = s
		}
		s.add(r)
	}

	summaries := make([]Summary, 0, len(byStaff))
	for _, s := range byStaff {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StaffID < summaries[j].StaffID })
	return summaries, nil
}

// sendAbsenceNotice does not wait for the email to be sent.
func (svc *service) sendAbsenceNotice(member staff.Staff, rec Record) {
	if svc.mailSvc == nil || member.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: member.Name, Address: member.Email}},
		Subject:      "Absence recorded on " + rec.Date,
		TemplateName: absenceNoticeTemplate,
		TemplateData: absenceNoticeData{Name: member.Name, Date: rec.Date, Note: rec.Note},
	})
	if svc.logger != nil {
		svc.logger.Info("absence notice sent", member, map[string]interface{}{"record": rec.ID, "date": rec.Date})
	}
}
