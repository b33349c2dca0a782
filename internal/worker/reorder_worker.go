package worker

// reorder_worker.go
// Processes reorder alerts from QueueReorder by mailing the purchasing inbox.

import (
	"context"
	"encoding/json"
	"fmt"

	"retailworks/internal/dto"

	"github.com/rs/zerolog/log"
)

type ReorderWorker struct {
	mailer     Sender
	purchasing string
}

func NewReorderWorker(mailer Sender, purchasingEmail string) *ReorderWorker {
	return &ReorderWorker{mailer: mailer, purchasing: purchasingEmail}
}

// Process turns a reorder signal into a purchasing email. Without a mailer the
// alert is only logged.
func (w *ReorderWorker) Process(_ context.Context, raw json.RawMessage) error {
	var signal dto.ReorderSignal
	if err := json.Unmarshal(raw, &signal); err != nil {
		log.Error().Err(err).Msg("reorder_worker: invalid payload")
		return nil
	}

	subject, body := reorderMessage(signal)
	if w.mailer == nil || w.purchasing == "" {
		log.Warn().Str("product_id", signal.ProductID).Str("location", signal.LocationCode).
			Int("on_hand", signal.QuantityOnHand).Msg("reorder_worker: " + subject)
		return nil
	}
	if err := w.mailer.Send(w.purchasing, subject, body, ""); err != nil {
		return fmt.Errorf("reorder_worker: %w", err)
	}
	log.Info().Str("product_id", signal.ProductID).Str("location", signal.LocationCode).
		Msg("reorder_worker: purchasing notified")
	return nil
}

func reorderMessage(s dto.ReorderSignal) (subject, body string) {
	subject = fmt.Sprintf("Reorder needed: product %s at %s", s.ProductID, s.LocationCode)
	body = fmt.Sprintf(
		"Product %s at location %s is at or below its reorder point.\n\n"+
			"On hand:          %d\nReorder point:    %d\nSuggested order:  %d\n\nRaised at %s\n",
		s.ProductID, s.LocationCode, s.QuantityOnHand, s.ReorderPoint, s.ReorderQuantity, s.EmittedAt)
	return subject, body
}
