package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/donaldgifford/fundgrube-watcher/internal/metrics"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

const (
	colorGreen  = 0x2ECC71 // discount 50%+
	colorYellow = 0xF1C40F // discount 25-49%
	colorOrange = 0xE67E22 // below 25%

	maxEmbeds         = 10
	maxContentLength  = 2000
	discordChannelKey = "discord"

	defaultDiscordRetries = 2
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	retries    uint
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
		retries:    defaultDiscordRetries,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithRetries sets how often a rate-limited webhook call is repeated. Other
// failures are never retried.
func WithRetries(n uint) DiscordOption {
	return func(d *DiscordNotifier) {
		d.retries = n
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Thumbnail   *discordThumbnail   `json:"thumbnail,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

// SendMatches sends the matches as a single Discord message, one embed each.
func (d *DiscordNotifier) SendMatches(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	// Discord allows max 10 embeds per message.
	limit := min(len(matches), maxEmbeds)

	embeds := make([]discordEmbed, 0, limit+1)
	for i := range limit {
		embeds = append(embeds, buildEmbed(&matches[i]))
	}

	if len(matches) > maxEmbeds {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("... and %d more items", len(matches)-maxEmbeds),
			Color:       colorYellow,
			Description: "Check the mail report or `fundgrube-watcher seen list` for the full list.",
		})
	}

	payload := discordWebhookPayload{
		Content: MatchesSubject(len(matches)),
		Embeds:  embeds,
	}
	return d.post(ctx, payload)
}

// SendText sends a plain message.
func (d *DiscordNotifier) SendText(ctx context.Context, subject, body string) error {
	content := "**" + subject + "**\n" + body
	if len(content) > maxContentLength {
		content = content[:maxContentLength-3] + "..."
	}
	return d.post(ctx, discordWebhookPayload{Content: content})
}

func buildEmbed(m *domain.Match) discordEmbed {
	it := &m.Item
	embed := discordEmbed{
		Title: it.Title,
		URL:   it.DirectURL(),
		Color: discountColor(it.DiscountPercent),
		Fields: []discordEmbedField{
			{Name: "Price", Value: fmt.Sprintf("%.2f €", it.Price), Inline: true},
			{Name: "Shipping", Value: fmt.Sprintf("%.2f €", it.ShippingCost), Inline: true},
			{Name: "Discount", Value: fmt.Sprintf("%.0f %%", it.DiscountPercent), Inline: true},
			{Name: "Store", Value: storeLabel(it), Inline: true},
			{Name: "Rules", Value: strings.Join(m.Terms(), ", "), Inline: true},
		},
	}

	if it.OriginalURL != "" {
		embed.Thumbnail = &discordThumbnail{URL: it.OriginalURL}
	}

	return embed
}

func storeLabel(it *domain.Item) string {
	if it.OutletName == "" {
		return it.Store
	}
	return it.Store + " (" + it.OutletName + ")"
}

func discountColor(pct float64) int {
	switch {
	case pct >= 50:
		return colorGreen
	case pct >= 25:
		return colorYellow
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	op := func() (struct{}, error) {
		return struct{}{}, d.doPost(ctx, payload)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(d.retries+1),
	)
	if err != nil {
		return &NotifyError{Channel: discordChannelKey, Err: err}
	}
	return nil
}

func (d *DiscordNotifier) doPost(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshaling discord payload: %w", err))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating discord request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("sending discord webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429): %w", backoff.RetryAfter(retryAfterSeconds(resp.Header.Get("Retry-After"))))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return backoff.Permanent(fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode))
		}
		return backoff.Permanent(fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody))
	}

	return nil
}

// retryAfterSeconds rounds Discord's fractional Retry-After up. A missing or
// malformed header waits one second.
func retryAfterSeconds(header string) int {
	secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 1
	}
	return int(math.Ceil(secs))
}
