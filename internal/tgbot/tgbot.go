package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/data/session"
	"github.com/ndanilin/coindash_bot/internal/converter/telebotConverter"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/transport/telegram"
	customMW "github.com/ndanilin/coindash_bot/internal/transport/telegram/middleware"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

// NotifyAlert доставляет сработавшее уведомление в чат. Вызывается из джобы.
func (b *TGBot) NotifyAlert(chatID int64, alert model.Alert, price decimal.Decimal) error {
	_, err := b.bot.Send(tele.ChatID(chatID), telebotConverter.AlertFiredResponse(alert, price))
	return err
}

func (b *TGBot) setupRoutes() {
	// свободный текст диспетчеризуется по шагу пользователя в сессии
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
				return c.Send("что-то пошло не так...")
			}
			chatSession = model.Session{}
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingLotInput:
			return b.ctrl.ProcessAddLot(c)
		case model.ExpectingWatchInput:
			return b.ctrl.ProcessWatch(c)
		case model.ExpectingAlertInput:
			return b.ctrl.ProcessAlert(c)
		case model.ExpectingPostText:
			return b.ctrl.ProcessPost(c)
		default:
			return c.Send("сначала введите одну из команд")
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)

	b.bot.Handle("/buy", b.ctrl.InitAddLot)
	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/history", b.ctrl.History)
	b.bot.Handle("/lots", b.ctrl.Lots)
	b.bot.Handle("/dellot", b.ctrl.DeleteLot)

	b.bot.Handle("/watch", b.ctrl.InitWatch)
	b.bot.Handle("/watchlist", b.ctrl.Watchlist)
	b.bot.Handle("/unwatch", b.ctrl.Unwatch)

	b.bot.Handle("/alert", b.ctrl.InitAlert)
	b.bot.Handle("/alerts", b.ctrl.Alerts)
	b.bot.Handle("/delalert", b.ctrl.DeleteAlert)

	b.bot.Handle("/post", b.ctrl.InitPost)
	b.bot.Handle("/feed", b.ctrl.Feed)

	b.bot.Handle("/report", b.ctrl.Report)
}
