package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/database"
	"grocery-planner/internal/planner"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shopping"
	"grocery-planner/internal/user"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const helpText = "Commands:\n/plans - your meal plans\n/today - today's meals\n/lists - your shopping lists\n/list <n> - items of the n-th list"

// Sender delivers messages to a chat.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserFinder resolves a chat user's email to an app user.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// PlanLister lists a user's meal plans.
type PlanLister interface {
	List(ctx context.Context, userID string) ([]planner.MealPlan, error)
}

// ListLister lists a user's shopping lists.
type ListLister interface {
	List(ctx context.Context, userID string) ([]shopping.ShoppingList, error)
}

// RecipeLookup loads recipes by ID for meal titles.
type RecipeLookup interface {
	GetByIDs(ctx context.Context, userID string, ids []string) (map[string]*recipe.Recipe, error)
}

// IngredientNames maps a user's ingredient IDs to names.
type IngredientNames interface {
	Names(ctx context.Context, userID string) (map[string]string, error)
}

// Deps are the read-side stores the bot answers from.
type Deps struct {
	Users       UserFinder
	Plans       PlanLister
	Lists       ListLister
	Recipes     RecipeLookup
	Ingredients IngredientNames
}

// Bot answers read-only commands about a user's plans and lists. Chat
// users are mapped to app users by email.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	deps    Deps
	allowed map[int64]string
	logger  *logrus.Entry
	now     func() time.Time
}

// NewBot initializes the Telegram API and registers the webhook.
func NewBot(token, webhookURL string, allowed map[int64]string, deps Deps, logger *logrus.Entry) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.WithField("account", api.Self.UserName).Info("telegram bot authorized")

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	logger.WithField("response", resp.Description).Info("telegram webhook set")

	return newBot(api, api, allowed, deps, logger), nil
}

func newBot(api *tgbotapi.BotAPI, sender Sender, allowed map[int64]string, deps Deps, logger *logrus.Entry) *Bot {
	return &Bot{
		api:     api,
		sender:  sender,
		deps:    deps,
		allowed: allowed,
		logger:  logger,
		now:     time.Now,
	}
}

// ServeHTTP handles one webhook update. Telegram only needs a 200; failures
// are reported to the chat and logged.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.WithError(err).Warn("error parsing telegram update")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.handleMessage(r.Context(), update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	email, ok := b.allowed[msg.From.ID]
	if !ok {
		b.logger.WithFields(logrus.Fields{
			"telegram_id": msg.From.ID,
			"username":    msg.From.UserName,
		}).Warn("unauthorized telegram access attempt")
		return
	}

	u, err := b.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			b.reply(msg.Chat.ID, "Sign in to the web app with "+email+" first.")
			return
		}
		b.fail(msg.Chat.ID, err)
		return
	}

	text, err := b.answer(ctx, u.ID, msg.Command(), msg.CommandArguments())
	if err != nil {
		b.fail(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) answer(ctx context.Context, userID, command, args string) (string, error) {
	switch command {
	case "plans":
		plans, err := b.deps.Plans.List(ctx, userID)
		if err != nil {
			return "", err
		}
		return formatPlans(plans), nil

	case "today":
		plans, err := b.deps.Plans.List(ctx, userID)
		if err != nil {
			return "", err
		}
		var ids []string
		for i := range plans {
			ids = append(ids, plans[i].RecipeIDs()...)
		}
		recipes, err := b.deps.Recipes.GetByIDs(ctx, userID, ids)
		if err != nil {
			return "", err
		}
		titles := make(map[string]string, len(recipes))
		for id, r := range recipes {
			titles[id] = r.Title
		}
		return formatToday(b.now(), plans, titles), nil

	case "lists":
		lists, err := b.deps.Lists.List(ctx, userID)
		if err != nil {
			return "", err
		}
		return formatLists(lists), nil

	case "list":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil || n < 1 {
			return "Usage: /list <n>, where n is a number from /lists", nil
		}
		lists, err := b.deps.Lists.List(ctx, userID)
		if err != nil {
			return "", err
		}
		if n > len(lists) {
			return fmt.Sprintf("You have %d shopping lists.", len(lists)), nil
		}
		names, err := b.deps.Ingredients.Names(ctx, userID)
		if err != nil {
			return "", err
		}
		return formatList(&lists[n-1], names), nil
	}
	return helpText, nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("failed to send telegram message")
	}
}

func (b *Bot) fail(chatID int64, err error) {
	b.logger.WithError(err).Error("telegram command failed")
	b.reply(chatID, "❌ "+escape(apperr.PublicMessage(err)))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlans(plans []planner.MealPlan) string {
	if len(plans) == 0 {
		return "_No meal plans yet_"
	}
	var sb strings.Builder
	sb.WriteString("📅 *Meal Plans*\n\n")
	for _, p := range plans {
		sb.WriteString(fmt.Sprintf("• *%s*: %s to %s (%d days)\n",
			escape(p.Title), database.FormatDate(p.StartDate), database.FormatDate(p.EndDate), p.NumberOfDays))
	}
	return sb.String()
}

func formatToday(now time.Time, plans []planner.MealPlan, titles map[string]string) string {
	today := planner.NormalizeDate(now)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽 *Today* (%s)\n\n", database.FormatDate(today)))
	found := false
	for i := range plans {
		idx := plans[i].DayIndex(today)
		if idx < 0 || len(plans[i].Days[idx].Meals) == 0 {
			continue
		}
		found = true
		sb.WriteString(fmt.Sprintf("*%s*\n", escape(plans[i].Title)))
		for _, m := range plans[i].Days[idx].OrderedMeals() {
			sb.WriteString(fmt.Sprintf("• %s\n", escape(planner.MealSummary(m, titles))))
		}
		sb.WriteString("\n")
	}
	if !found {
		sb.WriteString("_Nothing planned_\n")
	}
	return sb.String()
}

func formatLists(lists []shopping.ShoppingList) string {
	if len(lists) == 0 {
		return "_No shopping lists yet_"
	}
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping Lists*\n\n")
	for i, l := range lists {
		checked := 0
		for _, it := range l.Items {
			if it.IsChecked {
				checked++
			}
		}
		sb.WriteString(fmt.Sprintf("%d. *%s* (%d/%d)\n", i+1, escape(l.Title), checked, len(l.Items)))
	}
	return sb.String()
}

func formatList(l *shopping.ShoppingList, names map[string]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *%s*\n\n", escape(l.Title)))
	if len(l.Items) == 0 {
		sb.WriteString("_Empty_\n")
	}
	for _, it := range l.Items {
		mark := "⬜"
		if it.IsChecked {
			mark = "✅"
		}
		name, ok := names[it.IngredientID]
		if !ok {
			name = "Unknown ingredient"
		}
		qty := strconv.FormatFloat(it.Quantity, 'f', -1, 64)
		line := strings.TrimSpace(fmt.Sprintf("%s %s %s %s", mark, escape(name), qty, escape(it.Unit)))
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
