package pmsapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// Housekeeping

func (c *Client) ListHousekeepingTasks(ctx context.Context, limit int) ([]model.HousekeepingTask, error) {
	return list[model.HousekeepingTask](ctx, c, "/housekeeping/tasks", limitQuery(limit), "tasks")
}

func (c *Client) ListRoomStatus(ctx context.Context, limit int) ([]model.RoomStatusEntry, error) {
	return list[model.RoomStatusEntry](ctx, c, "/housekeeping/room-status", limitQuery(limit), "rooms")
}

func (c *Client) UpdateHousekeepingTaskStatus(ctx context.Context, id, status string) error {
	return c.send(ctx, http.MethodPut, "/housekeeping/tasks/"+url.PathEscape(id)+"/status", model.StatusChange{Status: status}, nil)
}

// ListMedia reads uploaded photos, optionally filtered by QA status.
func (c *Client) ListMedia(ctx context.Context, qaStatus string, limit int) ([]model.MediaItem, error) {
	q := limitQuery(limit)
	if qaStatus != "" {
		q.Set("qa_status", qaStatus)
	}
	return list[model.MediaItem](ctx, c, "/media/list", q, "media")
}

func (c *Client) ReviewMedia(ctx context.Context, in model.QAReview) error {
	return c.send(ctx, http.MethodPost, "/media/qa/review", in, nil)
}

// Messaging

func (c *Client) ListMessageTemplates(ctx context.Context, limit int) ([]model.MessageTemplate, error) {
	return list[model.MessageTemplate](ctx, c, "/messaging/templates", limitQuery(limit), "templates")
}

func (c *Client) SendMessage(ctx context.Context, in model.OutgoingMessage) error {
	return c.send(ctx, http.MethodPost, "/messaging/send", in, nil)
}

// Point of sale

func (c *Client) ListPOSTables(ctx context.Context, limit int) ([]model.POSTable, error) {
	return list[model.POSTable](ctx, c, "/pos/tables", limitQuery(limit), "tables")
}

func (c *Client) UpdatePOSTableStatus(ctx context.Context, id, status string) error {
	return c.send(ctx, http.MethodPut, "/pos/tables/"+url.PathEscape(id)+"/status", model.StatusChange{Status: status}, nil)
}

// Staff

func (c *Client) ListStaff(ctx context.Context, limit int) ([]model.StaffMember, error) {
	return list[model.StaffMember](ctx, c, "/staff", limitQuery(limit), "staff")
}

func (c *Client) ListStaffTasks(ctx context.Context, limit int) ([]model.StaffTask, error) {
	return list[model.StaffTask](ctx, c, "/staff/tasks", limitQuery(limit), "tasks")
}

func (c *Client) UpdateStaffTaskStatus(ctx context.Context, id, status string) error {
	return c.send(ctx, http.MethodPut, "/staff/tasks/"+url.PathEscape(id)+"/status", model.StatusChange{Status: status}, nil)
}
