package service

import (
	"encoding/json"
	"fmt"

	"gopkg.in/telebot.v3"
)

// LabeledPrice is one line of a Telegram invoice
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// InvoiceParams are the createInvoiceLink parameters the bridge needs.
// Currency is always XTR for Telegram Stars.
type InvoiceParams struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Payload     string         `json:"payload"`
	Currency    string         `json:"currency"`
	Prices      []LabeledPrice `json:"prices"`
}

// TelegramAPI is the slice of the Bot API the payment bridge uses.
// Tests substitute a stub; production wraps a telebot.Bot.
type TelegramAPI interface {
	CreateInvoiceLink(params InvoiceParams) (string, error)
	AnswerPreCheckout(queryID string, ok bool, errorMessage string) error
	SendMessage(chatID int64, text string) error
}

type botAPI struct {
	bot *telebot.Bot
}

// NewBotAPI wraps a telebot bot as the bridge's TelegramAPI
func NewBotAPI(b *telebot.Bot) TelegramAPI {
	return &botAPI{bot: b}
}

func (a *botAPI) CreateInvoiceLink(params InvoiceParams) (string, error) {
	data, err := a.bot.Raw("createInvoiceLink", params)
	if err != nil {
		return "", err
	}
	var resp struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode invoice link response: %w", err)
	}
	return resp.Result, nil
}

func (a *botAPI) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	query := &telebot.PreCheckoutQuery{ID: queryID}
	if ok {
		return a.bot.Accept(query)
	}
	return a.bot.Accept(query, errorMessage)
}

func (a *botAPI) SendMessage(chatID int64, text string) error {
	_, err := a.bot.Send(telebot.ChatID(chatID), text, &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	})
	return err
}
