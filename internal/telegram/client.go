package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parleybot/parley/internal/log"
)

// DefaultAPIBase is the production Bot API endpoint prefix.
const DefaultAPIBase = "https://api.telegram.org"

// Moderation calls with an until value outside this window are treated by the
// platform as permanent.
const (
	MinRestriction = 30 * time.Second
	MaxRestriction = 366 * 24 * time.Hour
)

// Client talks to the Bot API over HTTP. It implements both the inbound
// long-poll call and the outbound delivery interface the dispatcher sends
// plugin responses through.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the given bot token. apiBase overrides the
// production endpoint, used by tests.
func NewClient(token, apiBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		baseURL: fmt.Sprintf("%s/bot%s/", apiBase, token),
		// No overall timeout: getUpdates long-polls for up to the poll
		// timeout plus network latency. Per-call deadlines come from ctx.
		http:   &http.Client{},
		logger: log.WithComponent("telegram"),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// GetMe returns the bot's own account, verifying the token works.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	var me User
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, fmt.Errorf("decode getMe result: %w", err)
	}
	return &me, nil
}

// GetUpdates long-polls for updates with id >= offset. timeout is the server
// side hold time in seconds; zero means an immediate response.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	if timeout > 0 {
		params.Set("timeout", strconv.Itoa(timeout))
	}

	raw, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendText sends a plain text message to a chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)

	c.logger.Debug("sending message", "chat_id", chatID)
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// SendMedia uploads the file at path and sends it as the given kind with an
// optional caption.
func (c *Client) SendMedia(ctx context.Context, chatID int64, kind MediaKind, caption, path string) error {
	method, ok := mediaMethods[kind]
	if !ok {
		return fmt.Errorf("unknown media kind %q", kind)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeMediaForm(mw, f, string(kind), chatID, caption, filepath.Base(path))
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, pr)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("sending media", "chat_id", chatID, "kind", kind, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	_, err = decodeAPIResponse(method, resp.Body)
	return err
}

func writeMediaForm(mw *multipart.Writer, f io.Reader, field string, chatID int64, caption, filename string) error {
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// SendLocation shares a latitude/longitude point with a chat.
func (c *Client) SendLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))

	_, err := c.call(ctx, "sendLocation", params)
	return err
}

// SendPoll posts a poll with the given question and options.
func (c *Client) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	encoded, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode poll options: %w", err)
	}

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("question", question)
	params.Set("options", string(encoded))

	_, err = c.call(ctx, "sendPoll", params)
	return err
}

// Kick bans a user from a chat until the given duration elapses. The platform
// treats durations outside [MinRestriction, MaxRestriction] as permanent.
// The bot must be an admin of the chat.
func (c *Client) Kick(ctx context.Context, chatID, userID int64, until time.Duration) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("until_date", untilDate(until))

	c.logger.Info("kicking user", "chat_id", chatID, "user_id", userID, "until", until)
	_, err := c.call(ctx, "kickChatMember", params)
	return err
}

// Unban lifts a ban on a user. The bot must be an admin of the chat.
func (c *Client) Unban(ctx context.Context, chatID, userID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))

	c.logger.Info("unbanning user", "chat_id", chatID, "user_id", userID)
	_, err := c.call(ctx, "unbanChatMember", params)
	return err
}

// Restrict limits what a user may do in a chat until the given duration
// elapses, with the same permanence window as Kick.
func (c *Client) Restrict(ctx context.Context, chatID, userID int64, perms ChatPermissions, until time.Duration) error {
	encoded, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("permissions", string(encoded))
	params.Set("until_date", untilDate(until))

	c.logger.Info("restricting user", "chat_id", chatID, "user_id", userID, "until", until)
	_, err = c.call(ctx, "restrictChatMember", params)
	return err
}

func untilDate(until time.Duration) string {
	return strconv.FormatInt(time.Now().Add(until).Unix(), 10)
}

// call issues a request against the named API method and returns the result
// payload, surfacing platform-reported errors as Go errors.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeAPIResponse(method, resp.Body)
}

func decodeAPIResponse(method string, body io.Reader) (json.RawMessage, error) {
	var apiResp apiResponse
	if err := json.NewDecoder(body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("%s failed: %s", method, apiResp.Description)
	}
	return apiResp.Result, nil
}
