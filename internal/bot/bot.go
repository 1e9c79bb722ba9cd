package bot

import (
	"fmt"
	"strconv"
	"strings"

	"tanishuv/internal/logger"
	"tanishuv/internal/service"
	"tanishuv/internal/storage"

	"gopkg.in/telebot.v3"
)

// escapeMarkdown escapes special characters for Telegram Markdown mode
func escapeMarkdown(s string) string {
	escaped := s
	escaped = strings.ReplaceAll(escaped, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "*", `\*`)
	escaped = strings.ReplaceAll(escaped, "_", `\_`)
	escaped = strings.ReplaceAll(escaped, "`", "\\`")
	escaped = strings.ReplaceAll(escaped, "[", `\[`)
	escaped = strings.ReplaceAll(escaped, "]", `\]`)
	return escaped
}

func senderName(c telebot.Context) string {
	name := c.Sender().FirstName
	if name == "" {
		name = c.Sender().Username
	}
	if name == "" {
		name = "there"
	}
	return name
}

// RegisterHandlers wires the chat commands onto an existing bot. The
// same bot instance also serves the payment bridge, so the caller owns
// its lifecycle and calls Start itself.
func RegisterHandlers(b *telebot.Bot, webAppURL string) {
	// Register /start command handler
	b.Handle("/start", func(c telebot.Context) error {
		telegramID := c.Sender().ID
		uid := strconv.FormatInt(telegramID, 10)
		logger.Debug(uid, "command_start", fmt.Sprintf("username=%s first_name=%s", c.Sender().Username, c.Sender().FirstName))

		// Get or create user
		user, err := storage.GetUserByTelegramID(telegramID)
		if err != nil {
			logger.Error(uid, "start_failed", fmt.Sprintf("failed to get user: %v", err))
			return c.Send("Error retrieving your account. Please try again.")
		}
		if user == nil {
			user, err = storage.CreateUser(telegramID, senderName(c))
			if err != nil {
				logger.Error(uid, "start_failed", fmt.Sprintf("failed to create user: %v", err))
				return c.Send("Error creating your account. Please try again.")
			}
			logger.Debug(uid, "user_created", fmt.Sprintf("user_id=%s", user.ID))
		}

		// Create Web App button
		btn := telebot.InlineButton{
			Text:   "💜 Open Tanishuv",
			WebApp: &telebot.WebApp{URL: webAppURL},
		}

		welcomeMsg := fmt.Sprintf("Welcome to Tanishuv! 💜\n\nHi, %s! Meet new people, send tips and gifts, and support your favorite creators with Telegram Stars.\n\nTap the button below to start:",
			escapeMarkdown(user.Name))
		return c.Send(welcomeMsg, &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{
				{btn},
			},
		})
	})

	// Register /balance command handler
	b.Handle("/balance", func(c telebot.Context) error {
		telegramID := c.Sender().ID
		uid := strconv.FormatInt(telegramID, 10)
		logger.Debug(uid, "command_balance", "")

		user, err := storage.GetUserByTelegramID(telegramID)
		if err != nil {
			logger.Error(uid, "balance_failed", fmt.Sprintf("failed to get user: %v", err))
			return c.Send("Error retrieving your account. Please try again.")
		}
		if user == nil {
			return c.Send("You haven't started the bot yet. Use /start to create your account!")
		}

		wallet, err := storage.GetOrCreateWallet(user.ID)
		if err != nil {
			logger.Error(uid, "balance_failed", fmt.Sprintf("failed to get wallet: %v", err))
			return c.Send("Error retrieving your balance. Please try again.")
		}

		balanceText := fmt.Sprintf("💰 *Your Balance*\n\n"+
			"⭐ %s Stars (~%d UZS / ~$%.2f)\n\n"+
			"Earned: %s ⭐\n"+
			"Spent: %s ⭐\n",
			service.FormatStars(wallet.StarsBalance),
			service.StarsToUZS(wallet.StarsBalance),
			service.StarsToUSD(wallet.StarsBalance),
			service.FormatStars(wallet.TotalEarned),
			service.FormatStars(wallet.TotalSpent))
		if wallet.PendingWithdrawal > 0 {
			balanceText += fmt.Sprintf("Pending withdrawal: %s ⭐\n", service.FormatStars(wallet.PendingWithdrawal))
		}
		balanceText += "\nOpen the Tanishuv app to buy more Stars!"
		return c.Send(balanceText, &telebot.SendOptions{
			ParseMode: telebot.ModeMarkdown,
		})
	})

	// Register /help command handler
	b.Handle("/help", func(c telebot.Context) error {
		uid := strconv.FormatInt(c.Sender().ID, 10)
		logger.Debug(uid, "command_help", "")
		helpText := "📚 *Available Commands*\n\n" +
			"/start - Start the bot and open the app\n" +
			"/balance - Check your Stars balance\n" +
			"/help - Show this help message\n\n" +
			"⭐ Buy Stars, send tips and gifts, and unlock content inside the Tanishuv app!"
		return c.Send(helpText, &telebot.SendOptions{
			ParseMode: telebot.ModeMarkdown,
		})
	})
}
