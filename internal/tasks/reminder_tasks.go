package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"wecount/internal/balance"
	"wecount/internal/models"
	"wecount/internal/services"
)

// SendSettlementReminderTaskDef nudges every debtor of an event about what
// they still owe, through each user's preferred channel.
type SendSettlementReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendSettlementReminderTaskDef) TaskID() string {
	return "send_settlement_reminder"
}

// CreateTask builds a ScheduledTask reminding an event's debtors. Passing a
// recurring interval turns it into a standing reminder.
func (t *SendSettlementReminderTaskDef) CreateTask(eventID uint, due time.Time, recurringInterval *string) (*models.ScheduledTask, error) {
	taskType := models.ScheduledTaskTypeOneTime
	if recurringInterval != nil {
		taskType = models.ScheduledTaskTypeRecurring
	}
	args := map[string]interface{}{"event_id": eventID}
	return BuildScheduledTask(t.TaskID(), args, due, recurringInterval, taskType, 3)
}

type reminderTarget struct {
	user    models.User
	owed    float64
	lines   []string
	pending float64
}

// HandleExecution computes the event's settlement and notifies each linked
// debtor. Unlinked participants have nowhere to be reached and are skipped.
func (t *SendSettlementReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	eventID, err := uintArg(args, "event_id")
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := db.Preload("Participants.User").First(&event, eventID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}

	settlement := services.NewSettlementService(db, nil, slog.Default())
	res, err := settlement.Settle(ctx, eventID, balance.Viewer{})
	if err != nil {
		return nil, fmt.Errorf("failed to compute settlement: %w", err)
	}

	userByParticipant := make(map[uint]*models.User)
	for i := range event.Participants {
		p := &event.Participants[i]
		if p.User != nil {
			userByParticipant[p.ID] = p.User
		}
	}

	targets := make(map[uint]*reminderTarget)
	for _, d := range res.Debts {
		if d.Amount <= 0 {
			continue
		}
		user, ok := userByParticipant[d.FromID]
		if !ok {
			continue
		}
		tgt, ok := targets[user.ID]
		if !ok {
			tgt = &reminderTarget{user: *user}
			targets[user.ID] = tgt
		}
		tgt.owed += d.Amount
		tgt.pending += d.PendingReimbursement
		tgt.lines = append(tgt.lines, fmt.Sprintf("%.2f %s to %s", d.Amount, d.Currency, d.To))
	}

	total := len(targets)
	successCount := 0
	skippedCount := 0
	failureCount := 0
	var failures []string

	for _, tgt := range targets {
		var pref models.UserNotifPreference
		err := db.Where("user_id = ?", tgt.user.ID).First(&pref).Error
		if err == gorm.ErrRecordNotFound {
			pref = models.UserNotifPreference{Channel: models.NotificationChannelEmail}
		} else if err != nil {
			failureCount++
			failures = append(failures, fmt.Sprintf("%s: db error", tgt.user.Name))
			continue
		}

		var sendErr error
		switch pref.Channel {
		case models.NotificationChannelEmail:
			sendErr = sendReminderEmail(tgt, event)
		case models.NotificationChannelPush:
			sendErr = sendReminderPush(tgt, event, pref)
		case models.NotificationChannelNone:
			skippedCount++
			continue
		default:
			slog.Warn("unsupported notification channel", "channel", pref.Channel, "user", tgt.user.Name)
			skippedCount++
			continue
		}

		if sendErr != nil {
			slog.Error("failed to send settlement reminder", "user", tgt.user.Name, "channel", pref.Channel, "error", sendErr)
			failureCount++
			failures = append(failures, fmt.Sprintf("%s: %v", tgt.user.Name, sendErr))
		} else {
			successCount++
		}
	}

	result := map[string]interface{}{
		"total":   total,
		"success": successCount,
		"skipped": skippedCount,
		"failure": failureCount,
	}
	if failureCount > 0 {
		result["errors"] = failures
		return result, fmt.Errorf("failed to deliver %d of %d reminders", failureCount, total)
	}
	return result, nil
}

// SendSettlementReminderTask is the singleton instance of SendSettlementReminderTaskDef
var SendSettlementReminderTask = &SendSettlementReminderTaskDef{}

func reminderBody(tgt *reminderTarget, event models.Event) string {
	body := fmt.Sprintf("You still owe %.2f %s in %q:\n", tgt.owed, event.Currency, event.Name)
	for _, line := range tgt.lines {
		body += "  - " + line + "\n"
	}
	if tgt.pending > 0 {
		body += fmt.Sprintf("Repayments worth %.2f %s are awaiting confirmation.\n", tgt.pending, event.Currency)
	}
	return body
}

func sendReminderEmail(tgt *reminderTarget, event models.Event) error {
	emailService := services.NewEmailService()
	subject := fmt.Sprintf("Outstanding balance in %s", event.Name)
	return emailService.SendEmail([]string{tgt.user.Email}, subject, reminderBody(tgt, event))
}

func sendReminderPush(tgt *reminderTarget, event models.Event, pref models.UserNotifPreference) error {
	expoService := services.NewExpoService()
	title := fmt.Sprintf("You owe %.2f %s", tgt.owed, event.Currency)
	return expoService.SendPush(pref.ExpoPushToken, title, reminderBody(tgt, event), map[string]any{
		"event_id": event.ID,
	})
}

func uintArg(args map[string]interface{}, key string) (uint, error) {
	switch v := args[key].(type) {
	case float64:
		return uint(v), nil
	case int:
		return uint(v), nil
	case uint:
		return v, nil
	default:
		return 0, fmt.Errorf("%s not provided or invalid", key)
	}
}
