package model

import "strings"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleMember    Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleMember:
		return true
	}
	return false
}

// CanOrganize reports whether the role may create unions, posts, events and polls.
func (r Role) CanOrganize() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
}

type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Message is the generic acknowledgement body returned by join, leave and delete calls.
type Message struct {
	Message string `json:"message"`
}

type Union struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Industry    *string   `json:"industry"`
	Tags        *string   `json:"tags"`
	CreatedAt   Timestamp `json:"created_at"`
	Posts       []Post    `json:"posts,omitempty"`
	MemberCount int       `json:"member_count"`
	IsMember    bool      `json:"is_member"`
}

type UnionCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Tags        string `json:"tags,omitempty"`
}

type Member struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type Post struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UnionID   *int64     `json:"union_id"`
	CreatedAt Timestamp  `json:"created_at"`
	Upvotes   int        `json:"upvotes,omitempty"`
	Downvotes int        `json:"downvotes,omitempty"`
	Feedbacks []Feedback `json:"feedbacks,omitempty"`
	Comments  []Comment  `json:"comments,omitempty"`
}

type PostCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	PostID    *int64    `json:"post_id"`
	Anonymous bool      `json:"anonymous"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
}

type FeedbackCreate struct {
	Message   string `json:"message"`
	Anonymous bool   `json:"anonymous"`
}

type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	User      UserRef   `json:"user"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// CommentInput is the body for both creating and editing a comment.
type CommentInput struct {
	Content string `json:"content"`
}

type Event struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Location      *string    `json:"location"`
	StartTime     Timestamp  `json:"start_time"`
	EndTime       *Timestamp `json:"end_time"`
	UnionID       *int64     `json:"union_id"`
	CreatorID     int64      `json:"creator_id"`
	Creator       UserRef    `json:"creator"`
	CreatedAt     Timestamp  `json:"created_at"`
	AttendeeCount int        `json:"attendee_count"`
}

// EventInput is the body for both creating and replacing an event.
type EventInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartTime   Timestamp  `json:"start_time"`
	EndTime     *Timestamp `json:"end_time,omitempty"`
	UnionID     *int64     `json:"union_id,omitempty"`
}

type RSVPResult struct {
	Message       string `json:"message"`
	AttendeeCount int    `json:"attendee_count"`
}

type Attendee struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type Attendees struct {
	EventID       int64      `json:"event_id"`
	AttendeeCount int        `json:"attendee_count"`
	Attendees     []Attendee `json:"attendees"`
}

// Has reports whether the user with the given id is among the attendees.
func (a Attendees) Has(userID int64) bool {
	for _, at := range a.Attendees {
		if at.UserID == userID {
			return true
		}
	}
	return false
}

type PollOption struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
}

type Poll struct {
	ID        int64        `json:"id"`
	Question  string       `json:"question"`
	UnionID   *int64       `json:"union_id"`
	CreatedAt Timestamp    `json:"created_at"`
	Options   []PollOption `json:"options"`
}

type PollOptionInput struct {
	Text string `json:"text"`
}

type PollCreate struct {
	Question string            `json:"question"`
	UnionID  *int64            `json:"union_id,omitempty"`
	Options  []PollOptionInput `json:"options"`
}

type VoteInput struct {
	OptionID int64 `json:"option_id"`
}

type PollResultOption struct {
	OptionID int64  `json:"option_id"`
	Text     string `json:"text"`
	Votes    int    `json:"votes"`
}

type PollResults struct {
	PollID   int64              `json:"poll_id"`
	Question string             `json:"question"`
	Results  []PollResultOption `json:"results"`
}

// Total is the sum of per-option votes.
func (r PollResults) Total() int {
	total := 0
	for _, o := range r.Results {
		total += o.Votes
	}
	return total
}

type ChatbotQuestion struct {
	Question string `json:"question"`
}

type ChatbotAnswer struct {
	Answer      string   `json:"answer"`
	Suggestions []string `json:"suggestions"`
}

// SplitTags turns the comma separated tags column into a clean list.
func SplitTags(tags *string) []string {
	if tags == nil {
		return nil
	}
	var out []string
	for _, t := range strings.Split(*tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
