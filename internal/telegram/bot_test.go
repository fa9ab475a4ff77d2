package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/logging"
	"grocery-planner/internal/planner"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shopping"
	"grocery-planner/internal/user"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

type fakeStores struct {
	users   map[string]*user.User
	plans   []planner.MealPlan
	lists   []shopping.ShoppingList
	recipes map[string]*recipe.Recipe
	names   map[string]string
	listErr error
}

func (f *fakeStores) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeStores) List(context.Context, string) ([]planner.MealPlan, error) {
	return f.plans, nil
}

func (f *fakeStores) GetByIDs(_ context.Context, _ string, ids []string) (map[string]*recipe.Recipe, error) {
	found := make(map[string]*recipe.Recipe)
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok {
			found[id] = r
		}
	}
	return found, nil
}

func (f *fakeStores) Names(context.Context, string) (map[string]string, error) {
	return f.names, nil
}

type listStore struct{ *fakeStores }

func (l listStore) List(context.Context, string) ([]shopping.ShoppingList, error) {
	return l.lists, l.listErr
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *fakeStores) {
	t.Helper()
	stores := &fakeStores{
		users: map[string]*user.User{"alice@example.com": {ID: "user-1", Email: "alice@example.com"}},
		plans: []planner.MealPlan{{
			ID:           "plan-1",
			Title:        "Week_10",
			StartDate:    date("2024-03-04"),
			EndDate:      date("2024-03-06"),
			NumberOfDays: 3,
			Days: []planner.DayRecord{
				{Date: date("2024-03-04")},
				{Date: date("2024-03-05"), Meals: []planner.MealEntry{
					{ID: "m1", MealName: "Soup", MealType: planner.MealTypeDinner},
					{ID: "m2", RecipeID: "r1", MealType: planner.MealTypeBreakfast},
				}},
				{Date: date("2024-03-06")},
			},
		}},
		lists: []shopping.ShoppingList{
			{ID: "l1", Title: "Groceries", Items: []shopping.Item{
				{ID: "i1", IngredientID: "ing-1", Quantity: 2, Unit: "l", IsChecked: true},
				{ID: "i2", IngredientID: "ing-2", Quantity: 12},
			}},
		},
		recipes: map[string]*recipe.Recipe{"r1": {ID: "r1", Title: "Pancakes"}},
		names:   map[string]string{"ing-1": "Milk", "ing-2": "Eggs"},
	}
	sender := &fakeSender{}
	deps := Deps{
		Users:       stores,
		Plans:       stores,
		Lists:       listStore{stores},
		Recipes:     stores,
		Ingredients: stores,
	}
	bot := newBot(&tgbotapi.BotAPI{}, sender, map[int64]string{42: "alice@example.com", 7: "nobody@example.com"}, deps, logging.Component(logging.Discard(), "telegram"))
	bot.now = func() time.Time { return time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC) }
	return bot, sender, stores
}

func command(from int64, text string) *tgbotapi.Message {
	length := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		length = i
	}
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: 100},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func lastText(t *testing.T, s *fakeSender) string {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatal("Expected a reply, got none")
	}
	return s.sent[len(s.sent)-1].Text
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"Plans", "/plans", []string{"📅 *Meal Plans*", "*Week\\_10*: 2024-03-04 to 2024-03-06 (3 days)"}},
		{"Today", "/today", []string{"🍽 *Today* (2024-03-05)", "• Breakfast: Pancakes\n• Dinner: Soup"}},
		{"Lists", "/lists", []string{"1. *Groceries* (1/2)"}},
		{"List", "/list 1", []string{"🛒 *Groceries*", "✅ Milk 2 l", "⬜ Eggs 12"}},
		{"ListOutOfRange", "/list 3", []string{"You have 1 shopping lists."}},
		{"ListUsage", "/list abc", []string{"Usage: /list <n>"}},
		{"Help", "/start", []string{"/today - today's meals"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, sender, _ := newTestBot(t)
			bot.handleMessage(context.Background(), command(42, tt.text))

			got := lastText(t, sender)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Expected reply to contain %q, got %q", w, got)
				}
			}
			if sender.sent[0].ChatID != 100 {
				t.Errorf("Expected reply to chat 100, got %d", sender.sent[0].ChatID)
			}
		})
	}
}

func TestTodayWithNothingPlanned(t *testing.T) {
	bot, sender, _ := newTestBot(t)
	bot.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }

	bot.handleMessage(context.Background(), command(42, "/today"))
	if got := lastText(t, sender); !strings.Contains(got, "_Nothing planned_") {
		t.Errorf("Expected nothing planned, got %q", got)
	}
}

func TestUnknownTelegramUserIsIgnored(t *testing.T) {
	bot, sender, _ := newTestBot(t)
	bot.handleMessage(context.Background(), command(999, "/plans"))
	if len(sender.sent) != 0 {
		t.Errorf("Expected no reply for an unknown user, got %d", len(sender.sent))
	}
}

func TestUnregisteredEmail(t *testing.T) {
	bot, sender, _ := newTestBot(t)
	bot.handleMessage(context.Background(), command(7, "/plans"))
	if got := lastText(t, sender); !strings.Contains(got, "nobody@example.com") {
		t.Errorf("Expected sign-in hint, got %q", got)
	}
}

func TestStoreErrorIsHidden(t *testing.T) {
	bot, sender, stores := newTestBot(t)
	stores.listErr = apperr.Database("Failed to list shopping lists", errors.New("disk I/O error"))

	bot.handleMessage(context.Background(), command(42, "/lists"))
	got := lastText(t, sender)
	if !strings.Contains(got, "Failed to list shopping lists") {
		t.Errorf("Expected public message, got %q", got)
	}
	if strings.Contains(got, "disk") {
		t.Errorf("Expected driver error to be hidden, got %q", got)
	}
}

func TestServeHTTP(t *testing.T) {
	bot, sender, _ := newTestBot(t)

	body := `{"update_id":1,"message":{"message_id":5,"date":0,"from":{"id":42,"is_bot":false,"first_name":"Alice"},"chat":{"id":100,"type":"private"},"text":"/lists","entities":[{"type":"bot_command","offset":0,"length":6}]}}`
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	bot.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if got := lastText(t, sender); !strings.Contains(got, "Groceries") {
		t.Errorf("Expected lists reply, got %q", got)
	}

	rec = httptest.NewRecorder()
	bot.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a malformed update, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	bot.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}
