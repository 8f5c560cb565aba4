package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/GoCodeAlone/deskmate/config"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// labelCache maps label names to Gmail label ids. It is filled on first use
// and never invalidated; labels are rarely renamed.
type labelCache struct {
	ids map[string]string
}

func (c *labelCache) loaded() bool { return c.ids != nil }

func (c *labelCache) fill(labels []*gmail.Label) {
	c.ids = make(map[string]string, len(labels))
	for _, l := range labels {
		c.ids[l.Name] = l.Id
	}
}

func (c *labelCache) id(name string) (string, bool) {
	id, ok := c.ids[name]
	return id, ok
}

func (c *labelCache) put(name, id string) { c.ids[name] = id }

// Gmail is a Mailbox backed by the Gmail API.
type Gmail struct {
	srv    *gmail.Service
	user   string
	labels labelCache
	logger *slog.Logger
}

// NewGmail wraps an existing Gmail service.
func NewGmail(srv *gmail.Service, user string, logger *slog.Logger) *Gmail {
	if user == "" {
		user = "me"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gmail{srv: srv, user: user, logger: logger}
}

// Open authenticates with the stored OAuth token and returns a Gmail mailbox.
// It fails with config.ErrMissing when the credentials or token are absent.
func Open(ctx context.Context, cfg config.MailboxConfig, logger *slog.Logger) (*Gmail, error) {
	ts, err := TokenSource(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGmail(srv, cfg.User, logger), nil
}

// Search lists messages matching query and fetches their headers.
func (g *Gmail) Search(ctx context.Context, query string, limit int) ([]Message, error) {
	call := g.srv.Users.Messages.List(g.user).Q(query).Context(ctx)
	if limit > 0 {
		call = call.MaxResults(int64(limit))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("gmail search %q: %w", query, err)
	}
	out := make([]Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		m, err := g.srv.Users.Messages.Get(g.user, ref.Id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date", "Message-ID").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}
		out = append(out, toMessage(m))
	}
	g.logger.Debug("gmail search", slog.String("query", query), slog.Int("results", len(out)))
	return out, nil
}

// Read fetches a full message including its plain-text body.
func (g *Gmail) Read(ctx context.Context, id string) (*Message, error) {
	m, err := g.srv.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail read %s: %w", id, err)
	}
	msg := toMessage(m)
	msg.Body = plainText(m.Payload)
	if msg.Body == "" {
		msg.Body = m.Snippet
	}
	return &msg, nil
}

// ApplyLabel adds label to a message.
func (g *Gmail) ApplyLabel(ctx context.Context, id, label string) error {
	lid, err := g.labelID(ctx, label)
	if err != nil {
		return err
	}
	req := &gmail.ModifyMessageRequest{AddLabelIds: []string{lid}}
	if _, err := g.srv.Users.Messages.Modify(g.user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail label %s with %s: %w", id, label, err)
	}
	return nil
}

// RemoveLabel removes label from a message.
func (g *Gmail) RemoveLabel(ctx context.Context, id, label string) error {
	lid, err := g.labelID(ctx, label)
	if err != nil {
		return err
	}
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{lid}}
	if _, err := g.srv.Users.Messages.Modify(g.user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail unlabel %s from %s: %w", id, label, err)
	}
	return nil
}

// CreateDraft stores a plain-text draft, threaded when ThreadID is set.
func (g *Gmail) CreateDraft(ctx context.Context, p DraftParams) (string, error) {
	draft := &gmail.Draft{Message: &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(buildRaw(p))),
		ThreadId: p.ThreadID,
	}}
	d, err := g.srv.Users.Drafts.Create(g.user, draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail create draft: %w", err)
	}
	g.logger.Info("draft created", slog.String("draft", d.Id), slog.String("thread", p.ThreadID))
	return d.Id, nil
}

// EnsureLabels creates any agent label that does not exist yet.
func (g *Gmail) EnsureLabels(ctx context.Context) error {
	if err := g.loadLabels(ctx); err != nil {
		return err
	}
	for _, name := range Labels {
		if _, ok := g.labels.id(name); ok {
			continue
		}
		l, err := g.srv.Users.Labels.Create(g.user, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("gmail create label %s: %w", name, err)
		}
		g.labels.put(name, l.Id)
		g.logger.Info("label created", slog.String("label", name))
	}
	return nil
}

func (g *Gmail) loadLabels(ctx context.Context) error {
	if g.labels.loaded() {
		return nil
	}
	resp, err := g.srv.Users.Labels.List(g.user).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail list labels: %w", err)
	}
	g.labels.fill(resp.Labels)
	return nil
}

func (g *Gmail) labelID(ctx context.Context, name string) (string, error) {
	if err := g.loadLabels(ctx); err != nil {
		return "", err
	}
	if id, ok := g.labels.id(name); ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownLabel, name)
}

func toMessage(m *gmail.Message) Message {
	msg := Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
		Labels:   m.LabelIds,
		Date:     time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.From = h.Value
		case "to":
			msg.To = h.Value
		case "subject":
			msg.Subject = h.Value
		case "message-id":
			msg.MessageIDHeader = h.Value
		}
	}
	return msg
}

// plainText returns the first text/plain part of a payload.
func plainText(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if p.MimeType == "text/plain" && p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if s := plainText(part); s != "" {
			return s
		}
	}
	return ""
}

func decodeBody(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

// buildRaw renders an RFC 5322 plain-text message.
func buildRaw(p DraftParams) string {
	var sb strings.Builder
	header := func(k, v string) {
		if v != "" {
			sb.WriteString(k + ": " + v + "\r\n")
		}
	}
	header("To", p.To)
	header("Subject", mime.QEncoding.Encode("utf-8", p.Subject))
	header("In-Reply-To", p.InReplyTo)
	header("References", p.InReplyTo)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(strings.ReplaceAll(p.Body, "\n", "\r\n"))
	return sb.String()
}
