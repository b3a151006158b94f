package telegram

// Update is one long-poll result entry. Update IDs are assigned by the
// platform and strictly increase; the poller uses the highest seen ID as its
// cursor.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an inbound chat message. Every nested field the platform may omit
// is a pointer; decoding a minimal payload must never fail.
type Message struct {
	MessageID       int64    `json:"message_id"`
	From            *User    `json:"from,omitempty"`
	Date            int64    `json:"date"`
	Chat            *Chat    `json:"chat,omitempty"`
	ForwardFrom     *User    `json:"forward_from,omitempty"`
	ForwardFromChat *Chat    `json:"forward_from_chat,omitempty"`
	ReplyToMessage  *Message `json:"reply_to_message,omitempty"`
	EditDate        int64    `json:"edit_date,omitempty"`
	Text            string   `json:"text,omitempty"`
}

// SenderName returns the sender's username, falling back to their first name,
// or "" for service messages with no sender.
func (m *Message) SenderName() string {
	if m.From == nil {
		return ""
	}
	return m.From.DisplayName()
}

// ChatID returns the originating chat id, or 0 when the chat is absent.
func (m *Message) ChatID() int64 {
	if m.Chat == nil {
		return 0
	}
	return m.Chat.ID
}

// User identifies a platform account.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// DisplayName returns the username when set, else the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// Chat identifies a conversation (private, group, supergroup or channel).
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ChatPermissions restricts what a member may do, used with Restrict.
type ChatPermissions struct {
	CanSendMessages      bool `json:"can_send_messages"`
	CanSendMediaMessages bool `json:"can_send_media_messages"`
	CanSendPolls         bool `json:"can_send_polls"`
	CanSendOtherMessages bool `json:"can_send_other_messages"`
	CanAddWebPagePreview bool `json:"can_add_web_page_previews"`
	CanChangeInfo        bool `json:"can_change_info"`
	CanInviteUsers       bool `json:"can_invite_users"`
	CanPinMessages       bool `json:"can_pin_messages"`
}

// MediaKind selects the upload endpoint and form field for SendMedia.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaAudio     MediaKind = "audio"
	MediaDocument  MediaKind = "document"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
	MediaVoice     MediaKind = "voice"
)

var mediaMethods = map[MediaKind]string{
	MediaPhoto:     "sendPhoto",
	MediaAudio:     "sendAudio",
	MediaDocument:  "sendDocument",
	MediaVideo:     "sendVideo",
	MediaAnimation: "sendAnimation",
	MediaVoice:     "sendVoice",
}

// Valid reports whether the kind maps to a platform method.
func (k MediaKind) Valid() bool {
	_, ok := mediaMethods[k]
	return ok
}
