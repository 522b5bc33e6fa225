package settlement

import (
	"context"
	"fmt"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/clock"
	model "voltbay/internal/models"
	"voltbay/internal/notify"
	"voltbay/internal/repository"
	"voltbay/utils"

	"github.com/shopspring/decimal"
)

// Outcome of a settled auction
type Outcome string

const (
	OutcomeWon     Outcome = "WON"
	OutcomeExpired Outcome = "EXPIRED"
)

// Result describes how an auction was resolved. Applied is false when the
// auction had already been settled and nothing was written.
type Result struct {
	AuctionID string          `json:"auction_id"`
	Outcome   Outcome         `json:"outcome"`
	WinnerID  *string         `json:"winner_id"`
	Amount    decimal.Decimal `json:"amount"`
	Applied   bool            `json:"applied"`
}

// Engine resolves expired auctions into a winner or EXPIRED
type Engine struct {
	store repository.Store
	clock clock.Clock
}

func NewEngine(store repository.Store, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Engine{store: store, clock: clk}
}

// SettleExpired settles one auction. Calling it again on a settled auction
// returns the recorded outcome without side effects.
func (e *Engine) SettleExpired(ctx context.Context, auctionID string) (Result, error) {
	if auctionID == "" {
		return Result{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "empty auction ID")
	}

	var res Result
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		p, ok, err := e.store.ClaimAuctionForSettlement(ctx, auctionID)
		if err != nil {
			return err
		}
		if !ok {
			return auctionerrors.ErrSettlementInFlight
		}

		now := e.clock.Now()
		if !p.IsAuction {
			return auctionerrors.ErrNotAnAuction
		}
		if p.AuctionEndDate.After(now) {
			return auctionerrors.ErrNotExpired
		}
		if p.Settled() {
			res = recorded(p)
			return nil
		}
		if p.Status != model.ProductActive {
			return auctionerrors.Wrapf(auctionerrors.ErrAuctionNotActive, "status is %s", p.Status)
		}

		highest, err := e.store.GetHighestBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if highest != nil && !highest.Amount.LessThan(p.MinimumBid) {
			res, err = e.award(ctx, p, *highest)
			return err
		}
		res, err = e.expire(ctx, p)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("settlement: failed to settle auction %s: %w", auctionID, err)
	}

	if res.Applied {
		fields := map[string]any{"auction_id": auctionID, "outcome": res.Outcome}
		if res.WinnerID != nil {
			fields["winner_id"] = *res.WinnerID
			fields["amount"] = res.Amount.String()
		}
		utils.Info("auction settled", fields)
	}
	return res, nil
}

func (e *Engine) award(ctx context.Context, p model.Product, winner model.Bid) (Result, error) {
	now := e.clock.Now()
	if err := e.store.SetWinningBid(ctx, p.ID, winner.ID); err != nil {
		return Result{}, err
	}

	amount := winner.Amount
	winnerID := winner.BidderID
	p.CurrentBid = &amount
	p.WinnerID = &winnerID
	p.SettledAt = &now
	p.UpdatedAt = now
	if err := e.store.UpdateAuctionState(ctx, p); err != nil {
		return Result{}, err
	}

	data := map[string]any{"auction_id": p.ID, "bid_id": winner.ID, "amount": amount}
	won := notify.Message(winnerID, model.NotificationAuctionWon, "You won the auction",
		fmt.Sprintf("Your bid of %s won %q. Complete payment to claim it.", amount.StringFixed(2), p.Title), data, now)
	if err := e.store.CreateNotification(ctx, won); err != nil {
		return Result{}, err
	}
	ended := notify.Message(p.OwnerID, model.NotificationAuctionEnded, "Your auction has ended",
		fmt.Sprintf("%q sold for %s.", p.Title, amount.StringFixed(2)), data, now)
	if err := e.store.CreateNotification(ctx, ended); err != nil {
		return Result{}, err
	}

	return Result{AuctionID: p.ID, Outcome: OutcomeWon, WinnerID: &winnerID, Amount: amount, Applied: true}, nil
}

func (e *Engine) expire(ctx context.Context, p model.Product) (Result, error) {
	now := e.clock.Now()
	p.Status = model.ProductExpired
	p.SettledAt = &now
	p.UpdatedAt = now
	if err := e.store.UpdateAuctionState(ctx, p); err != nil {
		return Result{}, err
	}

	ended := notify.Message(p.OwnerID, model.NotificationAuctionEnded, "Your auction has ended",
		fmt.Sprintf("%q ended without a qualifying bid.", p.Title), map[string]any{"auction_id": p.ID}, now)
	if err := e.store.CreateNotification(ctx, ended); err != nil {
		return Result{}, err
	}

	return Result{AuctionID: p.ID, Outcome: OutcomeExpired, Amount: decimal.Zero, Applied: true}, nil
}

func recorded(p model.Product) Result {
	if p.WinnerID == nil {
		return Result{AuctionID: p.ID, Outcome: OutcomeExpired, Amount: decimal.Zero}
	}
	winnerID := *p.WinnerID
	res := Result{AuctionID: p.ID, Outcome: OutcomeWon, WinnerID: &winnerID}
	if p.CurrentBid != nil {
		res.Amount = *p.CurrentBid
	}
	return res
}
