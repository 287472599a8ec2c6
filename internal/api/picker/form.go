package picker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/flow"
	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/service"
	"github.com/joeblew999/plat-door/pkg/doorclient"
)

// AddressInput names which address field changed: 0 is the building line,
// 1..n are the doors.
type AddressInput struct {
	Index   int `query:"i" minimum:"0" doc:"0 for the building address, 1..n for a door"`
	RawBody []byte
}

// addressItem feeds the address-list template.
type addressItem struct {
	Key   string
	Label string
	Value string
	Index int
}

func (h *Handler) renderAddresses(d flow.Draft) string {
	if len(d.Addresses) == 0 {
		return ""
	}
	items := make([]any, 0, len(d.Addresses))
	for i, a := range d.Addresses {
		items = append(items, addressItem{
			Key:   addrKey(i + 1),
			Label: fmt.Sprintf("Door %d", i+1),
			Value: a,
			Index: i + 1,
		})
	}
	return h.RenderList("address-input", items, humastar.Empty{})
}

// Doors resizes the per-door address list to the stepper value.
func (h *Handler) Doors(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	n := signals.Int("doors")
	if n < 0 || n > flow.MaxDoors {
		return nil, huma.Error400BadRequest(fmt.Sprintf("A building has between 0 and %d doors", flow.MaxDoors))
	}
	return h.Stream(func(sse humastar.SSE) {
		snap, err := sess.Edit(func(d flow.Draft) flow.Draft { return d.WithDoors(n) })
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderAddresses(snap.Draft), "#addresses")
		sse.Signals(map[string]any{"doors": snap.Draft.Doors})
	}), nil
}

// Address records one address field.
func (h *Handler) Address(ctx context.Context, input *AddressInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(&humastar.SignalsInput{RawBody: input.RawBody})
	if err != nil {
		return nil, err
	}
	i := input.Index
	return h.Stream(func(sse humastar.SSE) {
		_, err := sess.Edit(func(d flow.Draft) flow.Draft {
			if i == 0 {
				return d.WithInfo(signals.String("address"))
			}
			return d.WithAddress(i-1, signals.String(addrKey(i)))
		})
		if err != nil {
			sse.Error(err.Error())
		}
	}), nil
}

// Language records the language select.
func (h *Handler) Language(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	lang := signals.String("language")
	if !slices.Contains(h.Settings.Languages, lang) {
		return nil, huma.Error400BadRequest("Unknown language: " + lang)
	}
	return h.Stream(func(sse humastar.SSE) {
		if _, err := sess.Edit(func(d flow.Draft) flow.Draft { return d.WithLanguage(lang) }); err != nil {
			sse.Error(err.Error())
		}
	}), nil
}

// transition runs a flow step and navigates to the page of the new state.
func (h *Handler) transition(input *humastar.SignalsInput, step func(*service.Session) (service.Snapshot, error)) (*huma.StreamResponse, error) {
	sess, _, err := h.session(input)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		snap, err := step(sess)
		switch {
		case errors.Is(err, flow.ErrPositionRequired):
			sse.Error("Drop the pin on the building first")
			return
		case err != nil:
			sse.Error(err.Error())
			return
		}
		sse.Go(location(snap.State.Path(), snap))
	}), nil
}

// Confirm moves from picking the pin to confirming it.
func (h *Handler) Confirm(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.transition(input, (*service.Session).ConfirmPin)
}

// Accept moves from confirming the pin to the details form.
func (h *Handler) Accept(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.transition(input, (*service.Session).AcceptPin)
}

// Cancel steps back one page without touching the server's data. Cancel on
// the first step goes home.
func (h *Handler) Cancel(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, _, err := h.session(input)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		snap, ok := sess.Cancel()
		if !ok {
			sse.Go(homeURL(snap.ID))
			return
		}
		sse.Go(location(snap.State.Path(), snap))
	}), nil
}

// Save submits the draft. A failed submit keeps the draft and reopens the
// form; success shows a banner and then goes home.
func (h *Handler) Save(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, _, err := h.session(input)
	if err != nil {
		return nil, err
	}
	log := h.Log.WithField("session", sess.ID)

	return h.Stream(func(sse humastar.SSE) {
		draft, err := sess.Save()
		if err != nil {
			if errors.Is(err, flow.ErrPositionRequired) {
				sse.Error("Drop the pin on the building first")
			} else {
				sse.Error("Please fill in the required fields")
			}
			return
		}
		sse.Signals(map[string]any{"saving": true})

		submitCtx, cancel := context.WithTimeout(ctx, h.Settings.SubmitTimeout)
		defer cancel()
		if _, err := h.Submit.Create(submitCtx, draft.Request()); err != nil {
			log.WithError(err).Error("Failed to submit building")
			if rerr := sess.Reopen(); rerr != nil {
				log.WithError(rerr).Warn("Could not reopen form")
			}
			sse.Signals(map[string]any{"saving": false})
			sse.Error(submitMessage(err))
			return
		}

		log.WithFields(logrus.Fields{"doors": service.DoorCount(draft.Doors), "language": draft.Language}).Info("Submitted building")
		sse.Success("Saved successfully")

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.redirectDelay):
		}
		h.Sessions.End(sess.ID)
		sse.Go(flow.HomePath)
	}), nil
}

// submitMessage is shown in the blocking alert.
func submitMessage(err error) string {
	var apiErr *doorclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "Could not save: " + apiErr.Message
	}
	return "Could not save, check your connection and try again"
}
