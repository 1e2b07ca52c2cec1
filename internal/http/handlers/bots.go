package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	dbpkg "botrelay/internal/db"
)

type botPayload struct {
	Name          string `json:"name"`
	Website       string `json:"website"`
	PrimaryColor  string `json:"primaryColor"`
	KnowledgeBase string `json:"knowledgeBase"`
	SecretKey     string `json:"secretKey"`
	Status        string `json:"status"`
}

func (p botPayload) toBot() *dbpkg.Bot {
	return &dbpkg.Bot{
		Name:          p.Name,
		Website:       p.Website,
		PrimaryColor:  p.PrimaryColor,
		KnowledgeBase: p.KnowledgeBase,
		SecretKey:     p.SecretKey,
		Status:        p.Status,
	}
}

func decodeBotPayload(ctx *fasthttp.RequestCtx) (botPayload, bool) {
	var p botPayload
	if err := json.Unmarshal(ctx.PostBody(), &p); err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return p, false
	}
	switch p.Status {
	case "", dbpkg.BotStatusActive, dbpkg.BotStatusInactive:
	default:
		errResponse(ctx, fasthttp.StatusBadRequest, "status must be active or inactive")
		return p, false
	}
	return p, true
}

// ownedBot loads bot {id} and checks the current user may manage it.
func ownedBot(ctx *fasthttp.RequestCtx, store *dbpkg.BotStore, user *dbpkg.User) (*dbpkg.Bot, bool) {
	id, ok := pathID(ctx)
	if !ok {
		return nil, false
	}
	bot, err := store.Get(context.Background(), id)
	if err != nil {
		if errors.Is(err, dbpkg.ErrBotNotFound) {
			errResponse(ctx, fasthttp.StatusNotFound, "bot not found")
			return nil, false
		}
		logrus.WithError(err).WithField("bot_id", id).Error("loading bot")
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load bot")
		return nil, false
	}
	if !user.IsAdmin && (bot.UserID == nil || *bot.UserID != user.ID) {
		errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
		return nil, false
	}
	return bot, true
}

// ListBots serves GET /admin/bots. Admins see every bot, other users their own.
func ListBots(store *dbpkg.BotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		ownerID := user.ID
		if user.IsAdmin {
			ownerID = 0
		}

		bots, err := store.List(context.Background(), ownerID)
		if err != nil {
			logrus.WithError(err).Error("listing bots")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to list bots")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"data": bots})
	}
}

// CreateBot serves POST /admin/bots. The new bot belongs to the caller.
func CreateBot(store *dbpkg.BotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		p, ok := decodeBotPayload(ctx)
		if !ok {
			return
		}
		if p.Name == "" || p.Website == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "name and website required")
			return
		}

		bot := p.toBot()
		bot.UserID = &user.ID
		if err := store.Create(context.Background(), bot); err != nil {
			if errors.Is(err, dbpkg.ErrDuplicateSecretKey) {
				errResponse(ctx, fasthttp.StatusBadRequest, "secret key already exists")
				return
			}
			logrus.WithError(err).Error("creating bot")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to create bot")
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{"data": bot})
	}
}

// UpdateBot serves PUT /admin/bots/{id}. Empty fields are left unchanged.
func UpdateBot(store *dbpkg.BotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		bot, ok := ownedBot(ctx, store, user)
		if !ok {
			return
		}
		p, ok := decodeBotPayload(ctx)
		if !ok {
			return
		}

		if err := store.Update(context.Background(), bot.ID, p.toBot()); err != nil {
			if errors.Is(err, dbpkg.ErrBotNotFound) {
				errResponse(ctx, fasthttp.StatusNotFound, "bot not found")
				return
			}
			if errors.Is(err, dbpkg.ErrSecretKeyImmutable) {
				errResponse(ctx, fasthttp.StatusBadRequest, "secretKey cannot be changed")
				return
			}
			logrus.WithError(err).WithField("bot_id", bot.ID).Error("updating bot")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update bot")
			return
		}

		updated, err := store.Get(context.Background(), bot.ID)
		if err != nil {
			logrus.WithError(err).WithField("bot_id", bot.ID).Error("reloading bot")
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load bot")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"data": updated})
	}
}

// BotMetrics serves GET /admin/bots/{id}/metrics: the Prometheus exposition
// restricted to series labelled with this bot.
func BotMetrics(store *dbpkg.BotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		bot, ok := ownedBot(ctx, store, user)
		if !ok {
			return
		}

		families, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}
		writeMetrics(ctx, filterByLabel(families, "bot", botLabel(bot.ID)))
	}
}
