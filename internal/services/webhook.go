package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taskforge-dev/taskforge/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorOrange = 16753920 // #FFA500 - tasks due soon

	Username = "Taskforge Reminders"
)

// WebhookNotifier posts due-task digests to the configured channels. Empty
// URLs disable the respective channel.
type WebhookNotifier struct {
	SlackWebhook   string
	DiscordWebhook string
	Client         *http.Client
}

func NewWebhookNotifier(slackWebhook string, discordWebhook string) *WebhookNotifier {
	return &WebhookNotifier{
		SlackWebhook:   slackWebhook,
		DiscordWebhook: discordWebhook,
		Client:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Enabled() bool {
	return n.SlackWebhook != "" || n.DiscordWebhook != ""
}

// SendDueTaskDigest posts one digest per project covering every unfinished
// task due inside the reminder window.
func (n *WebhookNotifier) SendDueTaskDigest(project models.Project, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	if n.DiscordWebhook != "" {
		if err := n.sendDiscordDigest(project, tasks); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if n.SlackWebhook != "" {
		if err := n.sendSlackDigest(project, tasks); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func taskDueLine(task models.Task) string {
	due := "no due date"
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02 15:04 UTC")
	}
	return fmt.Sprintf("%s (%s, due %s)", task.Title, task.Priority, due)
}

func (n *WebhookNotifier) sendDiscordDigest(project models.Project, tasks []models.Task) error {
	fields := make([]DiscordWebhookField, 0, len(tasks))
	for _, task := range tasks {
		fields = append(fields, DiscordWebhookField{
			Name:   task.Title,
			Value:  taskDueLine(task),
			Inline: false,
		})
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "Tasks due soon",
				Description: fmt.Sprintf("%d task(s) in **%s** need attention.", len(tasks), project.Name),
				Color:       ColorOrange,
				Fields:      fields,
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Project: %s | Taskforge", project.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	return n.post(n.DiscordWebhook, body)
}

func (n *WebhookNotifier) sendSlackDigest(project models.Project, tasks []models.Task) error {
	lines := make([]string, 0, len(tasks))
	for _, task := range tasks {
		lines = append(lines, "• "+taskDueLine(task))
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":alarm_clock:",
		Text:      fmt.Sprintf(":alarm_clock: *%d task(s) due soon in %s*", len(tasks), project.Name),
		Attachments: []SlackAttachment{
			{
				Color:     "warning",
				Title:     fmt.Sprintf("Project '%s'", project.Name),
				Text:      strings.Join(lines, "\n"),
				Footer:    fmt.Sprintf("Project: %s", project.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	return n.post(n.SlackWebhook, body)
}

func (n *WebhookNotifier) post(webhookURL string, body []byte) error {
	resp, err := n.Client.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
