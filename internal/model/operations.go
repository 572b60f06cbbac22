package model

// HousekeepingTask is a cleaning or inspection job on a room.
type HousekeepingTask struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	RoomNumber string    `json:"room_number,omitempty"`
	TaskType   string    `json:"task_type"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority,omitempty"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	DueAt      Timestamp `json:"due_at,omitempty"`
}

// RoomStatusEntry is one row of GET /housekeeping/room-status.
type RoomStatusEntry struct {
	RoomID     string `json:"room_id"`
	RoomNumber string `json:"room_number"`
	Status     string `json:"status"`
	Occupied   bool   `json:"occupied"`
}

// MediaItem is an uploaded photo awaiting or past quality review.
type MediaItem struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	RoomID     string    `json:"room_id,omitempty"`
	TaskID     string    `json:"task_id,omitempty"`
	Category   string    `json:"category,omitempty"`
	QAStatus   string    `json:"qa_status"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	UploadedAt Timestamp `json:"uploaded_at"`
}

// Photo QA decisions accepted by POST /media/qa/review.
const (
	QAApprove = "approve"
	QAReject  = "reject"
)

type QAReview struct {
	MediaID  string `json:"media_id"`
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

// StaffMember is an employee listed on the staff dashboard.
type StaffMember struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	OnShift    bool   `json:"on_shift"`
}

// StaffTask is a task assigned to a staff member.
type StaffTask struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AssignedTo string    `json:"assigned_to"`
	Status     string    `json:"status"`
	DueAt      Timestamp `json:"due_at,omitempty"`
}

// MessageTemplate is a guest messaging template.
type MessageTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// OutgoingMessage is the POST /messaging/send body.
type OutgoingMessage struct {
	TemplateID string            `json:"template_id,omitempty"`
	Channel    string            `json:"channel"`
	Recipient  string            `json:"recipient"`
	BookingID  string            `json:"booking_id,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// POSTable is a restaurant table on the point-of-sale floor plan.
type POSTable struct {
	ID      string `json:"id"`
	Number  string `json:"table_number"`
	Seats   int    `json:"seats"`
	Status  string `json:"status"`
	Section string `json:"section,omitempty"`
	OrderID string `json:"current_order_id,omitempty"`
}

// StatusChange is the body of the generic PUT .../status endpoints.
type StatusChange struct {
	Status string `json:"status"`
}
