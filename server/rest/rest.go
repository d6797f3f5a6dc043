// Package rest exposes the poll REST surface and implements the vote
// submission flow: tag derivation, ledger mutation through the store,
// and the requester-facing response. State fan-out happens inside the
// store once a vote commits; a broadcast failure never reaches the
// voter.
package rest

import (
	"strconv"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/identity"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/store"
	"github.com/gofiber/fiber/v2"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	store *store.Store
}

// Register mounts the poll routes on the given router.
func Register(app fiber.Router, s *store.Store) {
	h := &Handler{store: s}

	app.Get("/", h.Banner)
	app.Post("/polls", h.CreatePoll)
	app.Get("/polls", h.ListPolls)
	app.Get("/polls/:pollId", h.GetPoll)
	app.Post("/polls/:pollId/vote", h.Vote)
	app.Delete("/polls/:pollId", h.DeletePoll)
}

type questionRequest struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// createRequest accepts both shapes: a single question with options, or
// a titled list of questions.
type createRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`

	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []questionRequest `json:"questions"`

	Expiry int32 `json:"expiry"`
}

func (r *createRequest) definition() store.Definition {
	def := store.Definition{
		Title:       r.Title,
		Description: r.Description,
		Expiry:      r.Expiry,
	}
	if len(r.Questions) > 0 {
		def.Questions = make([]store.QuestionDefinition, len(r.Questions))
		for i, q := range r.Questions {
			def.Questions[i] = store.QuestionDefinition{Text: q.Text, Options: q.Options}
		}
		return def
	}
	def.Questions = []store.QuestionDefinition{{Text: r.Question, Options: r.Options}}
	return def
}

type voteRequest struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// tags derives the voter and origin digests from request metadata. Raw
// values are never kept.
func tags(c *fiber.Ctx) (voterTag, originTag string) {
	voterTag = identity.VoterTag(c.Get(fiber.HeaderUserAgent), c.Get(fiber.HeaderAcceptLanguage))
	addr := identity.ClientAddr(c.Get(fiber.HeaderXForwardedFor), c.Get("X-Real-Ip"), c.IP())
	originTag = identity.OriginTag(addr)
	return voterTag, originTag
}

func (h *Handler) Banner(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Real-Time Poll Rooms API",
		"policy":  h.store.Ledger().Policy().Name(),
		"endpoints": fiber.Map{
			"createPoll": "POST /polls",
			"getPoll":    "GET /polls/:pollId",
			"voteOnPoll": "POST /polls/:pollId/vote",
			"deletePoll": "DELETE /polls/:pollId",
			"listPolls":  "GET /polls",
			"realtime":   "GET /ws",
		},
	})
}

func (h *Handler) CreatePoll(c *fiber.Ctx) error {
	req := &createRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid poll definition")
	}

	p, err := h.store.Create(c.Context(), req.definition())
	if err != nil {
		if verr, ok := err.(*store.ValidationError); ok {
			return fail(c, fiber.StatusBadRequest, verr.Message)
		}
		log.Errorf("store, err=%v", err)
		return fail(c, fiber.StatusInternalServerError, "Error creating poll")
	}

	voterTag, _ := tags(c)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Poll created successfully",
		"poll":    h.store.Ledger().View(p, voterTag),
	})
}

func (h *Handler) GetPoll(c *fiber.Ctx) error {
	p, err := h.store.Get(c.Context(), c.Params("pollId"))
	if err == store.ErrNotFound {
		return fail(c, fiber.StatusNotFound, "Poll not found")
	}
	if err != nil {
		log.Errorf("store, err=%v", err)
		return fail(c, fiber.StatusInternalServerError, "Error fetching poll")
	}

	voterTag, _ := tags(c)
	return c.JSON(fiber.Map{
		"success": true,
		"poll":    h.store.Ledger().View(p, voterTag),
	})
}

func (h *Handler) Vote(c *fiber.Ctx) error {
	req := &voteRequest{}
	if err := c.BodyParser(req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid vote request")
	}
	if req.OptionID == "" {
		return fail(c, fiber.StatusBadRequest, "Option ID is required")
	}

	voterTag, originTag := tags(c)
	p, rej, err := h.store.ApplyVote(c.Context(), c.Params("pollId"), req.QuestionID, req.OptionID, voterTag, originTag)
	if err != nil {
		log.Errorf("store, err=%v", err)
		return fail(c, fiber.StatusInternalServerError, "Error recording vote")
	}
	if rej != nil {
		return fail(c, rej.Status(), rej.Message)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Vote recorded successfully",
		"poll":    h.store.Ledger().View(p, voterTag),
	})
}

func (h *Handler) DeletePoll(c *fiber.Ctx) error {
	err := h.store.Delete(c.Context(), c.Params("pollId"))
	if err == store.ErrNotFound {
		return fail(c, fiber.StatusNotFound, "Poll not found")
	}
	if err != nil {
		log.Errorf("store, err=%v", err)
		return fail(c, fiber.StatusInternalServerError, "Error deleting poll")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Poll deleted successfully",
	})
}

func (h *Handler) ListPolls(c *fiber.Ctx) error {
	limit := int64(store.ListCap)
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		limit = v
	}
	polls, err := h.store.ListSummaries(c.Context(), limit)
	if err != nil {
		log.Errorf("store, err=%v", err)
		return fail(c, fiber.StatusInternalServerError, "Error fetching polls")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(polls),
		"polls":   polls,
	})
}
