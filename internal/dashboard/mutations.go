package dashboard

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
)

// SetHousekeepingTaskStatus moves a housekeeping task along.
func (s *Service) SetHousekeepingTaskStatus(ctx context.Context, id, status string, n notice.Notifier) (Page, error) {
	id, status, err := statusInput(id, status)
	if err != nil {
		notice.Validation(n, err.Error())
		return Page{}, err
	}
	return s.mutate(ctx, PageHousekeeping, []string{"tasks", "room_status"}, n, "Task updated", "Failed to update task",
		func(ctx context.Context) error { return s.api.UpdateHousekeepingTaskStatus(ctx, id, status) })
}

// ReviewPhoto approves or rejects an uploaded photo.  Rejections need a
// note for the uploader.
func (s *Service) ReviewPhoto(ctx context.Context, in model.QAReview, n notice.Notifier) (Page, error) {
	in.Decision = strings.ToLower(strings.TrimSpace(in.Decision))
	in.Note = strings.TrimSpace(in.Note)
	var verr error
	switch {
	case strings.TrimSpace(in.MediaID) == "":
		verr = model.ValidationError("select a photo to review")
	case in.Decision != model.QAApprove && in.Decision != model.QAReject:
		verr = model.ValidationError("decision must be approve or reject")
	case in.Decision == model.QAReject && in.Note == "":
		verr = model.ValidationError("a note is required when rejecting a photo")
	}
	if verr != nil {
		notice.Validation(n, verr.Error())
		return Page{}, verr
	}
	msg := "Photo approved"
	if in.Decision == model.QAReject {
		msg = "Photo rejected"
	}
	return s.mutate(ctx, PageHousekeeping, []string{"media"}, n, msg, "Failed to review photo",
		func(ctx context.Context) error { return s.api.ReviewMedia(ctx, in) })
}

// CreateInvoice validates the lines and sends the invoice.
func (s *Service) CreateInvoice(ctx context.Context, in model.NewInvoice, n notice.Notifier) (Page, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validateInvoice(in); err != nil {
		notice.Validation(n, err.Error())
		return Page{}, err
	}
	return s.mutate(ctx, PageInvoicing, []string{"invoices", "report"}, n, "Invoice created", "Failed to create invoice",
		func(ctx context.Context) error {
			_, err := s.api.CreateInvoice(ctx, in)
			return err
		})
}

// CreateExpense records an expense.  page is the page the form was on;
// invoicing and cost both offer it.
func (s *Service) CreateExpense(ctx context.Context, page string, in model.NewExpense, n notice.Notifier) (Page, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	var verr error
	switch {
	case in.Category == "":
		verr = model.ValidationError("category is required")
	case in.Description == "":
		verr = model.ValidationError("description is required")
	case !in.Amount.IsPositive():
		verr = model.ValidationError("amount must be greater than zero")
	case in.Date.IsZero():
		verr = model.ValidationError("date is required")
	}
	if verr != nil {
		notice.Validation(n, verr.Error())
		return Page{}, verr
	}
	affected := []string{"expenses", "report"}
	if page == PageCost {
		affected = []string{"by_category", "report"}
	} else {
		page = PageInvoicing
	}
	return s.mutate(ctx, page, affected, n, "Expense recorded", "Failed to record expense",
		func(ctx context.Context) error {
			_, err := s.api.CreateExpense(ctx, in)
			return err
		})
}

// SendMessage sends a templated or free-form message to a guest.
func (s *Service) SendMessage(ctx context.Context, in model.OutgoingMessage, n notice.Notifier) (Page, error) {
	in.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	in.Recipient = strings.TrimSpace(in.Recipient)
	var verr error
	switch {
	case in.Channel == "":
		verr = model.ValidationError("channel is required")
	case in.Recipient == "":
		verr = model.ValidationError("recipient is required")
	case in.TemplateID == "" && strings.TrimSpace(in.Body) == "":
		verr = model.ValidationError("choose a template or write a message")
	}
	if verr != nil {
		notice.Validation(n, verr.Error())
		return Page{}, verr
	}
	return s.mutate(ctx, PageMessaging, nil, n, "Message sent", "Failed to send message",
		func(ctx context.Context) error { return s.api.SendMessage(ctx, in) })
}

func (s *Service) SetTableStatus(ctx context.Context, id, status string, n notice.Notifier) (Page, error) {
	id, status, err := statusInput(id, status)
	if err != nil {
		notice.Validation(n, err.Error())
		return Page{}, err
	}
	return s.mutate(ctx, PagePOS, []string{"tables"}, n, "Table updated", "Failed to update table",
		func(ctx context.Context) error { return s.api.UpdatePOSTableStatus(ctx, id, status) })
}

func (s *Service) SetStaffTaskStatus(ctx context.Context, id, status string, n notice.Notifier) (Page, error) {
	id, status, err := statusInput(id, status)
	if err != nil {
		notice.Validation(n, err.Error())
		return Page{}, err
	}
	return s.mutate(ctx, PageStaff, []string{"tasks"}, n, "Task updated", "Failed to update task",
		func(ctx context.Context) error { return s.api.UpdateStaffTaskStatus(ctx, id, status) })
}

func statusInput(id, status string) (string, string, error) {
	id = strings.TrimSpace(id)
	status = strings.ToLower(strings.TrimSpace(status))
	if id == "" {
		return "", "", model.ValidationError("nothing selected")
	}
	if status == "" {
		return "", "", model.ValidationError("status is required")
	}
	return id, status, nil
}
