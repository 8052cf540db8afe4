package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-procurement/internal/lock"
	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	actionApprove     = "approve"
	actionReject      = "reject"
	actionCancel      = "cancel"
	actionSubmit      = "submit"
	actionResubmit    = "resubmit"
	actionMoveToDraft = "move to draft"
	actionDelete      = "delete"
	actionEdit        = "edit"
)

// TransactionService drives the transaction lifecycle. Every operation runs
// in a single database transaction and publishes events only after commit.
type TransactionService interface {
	Create(ctx context.Context, p Principal, req CreateTransactionRequest) (*model.Transaction, error)
	Approve(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	Reject(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	Cancel(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	Submit(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	Resubmit(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	MoveToDraft(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error)
	DeleteDraft(ctx context.Context, p Principal, id uuid.UUID) error
	UpdatePurchase(ctx context.Context, p Principal, id uuid.UUID, req UpdatePurchaseRequest) (*model.Transaction, error)
	UpdateInbound(ctx context.Context, p Principal, id uuid.UUID, req UpdateInboundRequest) (*model.Transaction, error)
}

type transactionService struct {
	db           *gorm.DB
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	locations    repository.LocationRepository
	companies    repository.CompanyRepository
	locker       lock.Locker
	events       EventPublisher
	rules        map[model.TransactionType]approvalRule
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewTransactionService(
	db *gorm.DB,
	tRepo repository.TransactionRepository,
	pRepo repository.ProductRepository,
	lRepo repository.LocationRepository,
	cRepo repository.CompanyRepository,
	locker lock.Locker,
	events EventPublisher,
	log logrus.FieldLogger,
) TransactionService {
	if locker == nil {
		locker = lock.NewNoop()
	}
	return &transactionService{
		db:           db,
		transactions: tRepo,
		products:     pRepo,
		locations:    lRepo,
		companies:    cRepo,
		locker:       locker,
		events:       events,
		rules:        defaultRules(),
		log:          log.WithField("module", "transaction"),
		now:          time.Now,
	}
}

func (s *transactionService) publish(event string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, payload)
}

// logFailure records unexpected failures at error level and rule violations at info.
func (s *transactionService) logFailure(funcName string, id interface{}, err error) {
	if errors.Is(err, ErrInternal) {
		logger.LogError(s.log, "transaction", funcName, "unit of work failed", id, err)
		return
	}
	s.log.WithFields(logrus.Fields{"funcName": funcName, "data": id}).Info(err.Error())
}

func (s *transactionService) reload(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "transaction", id)
	}
	return t, nil
}

func (s *transactionService) Create(ctx context.Context, p Principal, req CreateTransactionRequest) (*model.Transaction, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, invalidField("type", "is not a known transaction type")
	}

	var (
		created *model.Transaction
		err     error
	)
	for attempt := 1; ; attempt++ {
		created, err = s.createOnce(ctx, p, req)
		if err == nil || req.Type != model.TxPurchase || !errors.Is(err, ErrConflict) || attempt >= maxPOAttempts {
			break
		}
		s.log.WithFields(logrus.Fields{"attempt": attempt, "error": err.Error()}).Warn("po number collision, retrying")
	}
	if err != nil {
		s.logFailure("Create", req.Type, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": created.ID,
		"type":           created.Type,
		"actor":          p.UserID,
	}).Info("transaction created")
	return s.reload(ctx, created.ID)
}

func (s *transactionService) createOnce(ctx context.Context, p Principal, req CreateTransactionRequest) (*model.Transaction, error) {
	now := s.now()
	if req.Type == model.TxPurchase {
		release := s.lockPONumbers(ctx, now.Year())
		defer release()
	}

	status := model.StatusPending
	if req.Status == model.StatusDraft {
		status = model.StatusDraft
	}

	t := &model.Transaction{
		Type:          req.Type,
		Status:        status,
		RequestedByID: p.UserID,
		DeliverTo:     req.DeliverTo,
		DeliveryDate:  req.DeliveryDate,
		Note:          req.Note,
	}
	t.StampCreated(p.actor())

	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		var err error
		if t.CompanyID, err = resolveCompany(ctx, w, req.Type, req.CompanyID); err != nil {
			return err
		}
		if t.FromLocationID, t.ToLocationID, err = resolveLocations(ctx, w, req.Type, req.FromLocationID, req.ToLocationID); err != nil {
			return err
		}
		if req.LinkedTransactionID != nil {
			if err := checkLink(ctx, w, req.Type, *req.LinkedTransactionID); err != nil {
				return err
			}
			linked := *req.LinkedTransactionID
			t.LinkedTransactionID = &linked
		}

		sources := make([]*model.Product, 0, len(req.Products))
		for i, in := range req.Products {
			product, err := w.products.FindByID(ctx, in.ProductID)
			if err != nil {
				return fromRepo(err, "product", in.ProductID)
			}
			item, err := buildLine(req.Type, product, in)
			if err != nil {
				var fe *FieldError
				if errors.As(err, &fe) {
					fe.Field = fmt.Sprintf("products[%d].%s", i, fe.Field)
				}
				return err
			}
			t.Products = append(t.Products, item)
			sources = append(sources, product)
		}

		if req.Type == model.TxTransfer {
			for _, product := range sources {
				if _, err := w.ledger.ensureAtLocation(ctx, product, *t.ToLocationID); err != nil {
					return err
				}
			}
		}

		if req.Type == model.TxPurchase {
			po, err := generatePONumber(ctx, w.transactions, now)
			if err != nil {
				return err
			}
			t.PONumber = &po
		}

		if err := w.transactions.Create(ctx, t); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		w.emit(EventTransactionCreated, transactionEvent(t))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func resolveCompany(ctx context.Context, w *unitOfWork, txType model.TransactionType, id *uuid.UUID) (*uuid.UUID, error) {
	if !txType.RequiresCompany() {
		return nil, nil
	}
	if id == nil || *id == uuid.Nil {
		return nil, invalidField("company_id", fmt.Sprintf("is required for %s", txType))
	}
	if _, err := w.companies.FindByID(ctx, *id); err != nil {
		return nil, fromRepo(err, "company", *id)
	}
	out := *id
	return &out, nil
}

func resolveLocations(ctx context.Context, w *unitOfWork, txType model.TransactionType, from, to *uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	var fromID, toID *uuid.UUID
	if txType.RequiresFromLocation() {
		if from == nil || *from == uuid.Nil {
			return nil, nil, invalidField("from_location_id", fmt.Sprintf("is required for %s", txType))
		}
		if _, err := w.locations.FindByID(ctx, *from); err != nil {
			return nil, nil, fromRepo(err, "location", *from)
		}
		v := *from
		fromID = &v
	}
	if txType.RequiresToLocation() {
		if to == nil || *to == uuid.Nil {
			return nil, nil, invalidField("to_location_id", fmt.Sprintf("is required for %s", txType))
		}
		if _, err := w.locations.FindByID(ctx, *to); err != nil {
			return nil, nil, fromRepo(err, "location", *to)
		}
		v := *to
		toID = &v
	}
	if txType == model.TxTransfer && *fromID == *toID {
		return nil, nil, invalidField("to_location_id", "must differ from from_location_id")
	}
	return fromID, toID, nil
}

// checkLink verifies the linked transaction exists and, for an inbound,
// that its purchase does not already have one.
func checkLink(ctx context.Context, w *unitOfWork, txType model.TransactionType, linkedID uuid.UUID) error {
	linked, err := w.transactions.FindByIDForUpdate(ctx, linkedID)
	if err != nil {
		return fromRepo(err, "linked transaction", linkedID)
	}
	if txType != model.TxInbound || linked.Type != model.TxPurchase {
		return nil
	}
	_, err = w.transactions.FindLinkedInbound(ctx, linked.ID)
	if err == nil {
		return fmt.Errorf("%w: purchase %s already has an inbound", ErrConflict, linked.ID)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return internalErr(err)
	}
	return nil
}

func approvedFields(p Principal, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":         model.StatusApproved,
		"approved_by_id": p.UserID,
		"approved_at":    now,
		"rejected_at":    nil,
		"cancelled_at":   nil,
		"updated_by":     p.actor(),
	}
}

func (s *transactionService) Approve(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	now := s.now()

	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := w.transactions.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "transaction", id)
		}
		if t.Status != model.StatusPending {
			return &TransitionError{Action: actionApprove, From: t.Status}
		}
		rule, ok := s.rules[t.Type]
		if !ok {
			return fmt.Errorf("%w: no approval rule for type %s", ErrInternal, t.Type)
		}

		deltas, err := rule.stockDeltas(ctx, w, t)
		if err != nil {
			return err
		}
		touched, err := w.ledger.apply(ctx, deltas)
		if err != nil {
			return err
		}
		if err := rule.afterApply(ctx, w, t, p, now); err != nil {
			return err
		}
		if err := w.transactions.UpdateFields(ctx, t.ID, approvedFields(p, now)); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}

		t.Status = model.StatusApproved
		w.emit(EventTransactionApproved, transactionEvent(t))
		if len(touched) > 0 {
			w.emit(EventStockUpdated, stockEvent(touched))
		}
		return nil
	})
	if err != nil {
		s.logFailure("Approve", id, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"transaction_id": id, "actor": p.UserID}).Info("transaction approved")
	return s.reload(ctx, id)
}

func (s *transactionService) Reject(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, actionReject, model.StatusPending, EventTransactionRejected, func(now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"status":         model.StatusRejected,
			"approved_by_id": p.UserID,
			"rejected_at":    now,
			"approved_at":    nil,
			"cancelled_at":   nil,
			"updated_by":     p.actor(),
		}
	})
}

// Cancel reverses an approved purchase. The linked inbound is removed and, if
// it was already approved, the stock it received is taken back out.
func (s *transactionService) Cancel(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	now := s.now()

	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := w.transactions.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "transaction", id)
		}
		if t.Type != model.TxPurchase {
			return fmt.Errorf("%w: only purchases can be cancelled", ErrInvalidTransition)
		}
		if t.Status != model.StatusApproved {
			return &TransitionError{Action: actionCancel, From: t.Status}
		}

		inbound, err := w.transactions.FindLinkedInbound(ctx, t.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return internalErr(err)
		default:
			if inbound.Status == model.StatusApproved {
				deltas, err := inboundRule{}.stockDeltas(ctx, w, inbound)
				if err != nil {
					return err
				}
				touched, err := w.ledger.apply(ctx, negate(deltas))
				if err != nil {
					return err
				}
				if len(touched) > 0 {
					w.emit(EventStockUpdated, stockEvent(touched))
				}
			}
			if err := w.transactions.Delete(ctx, inbound.ID); err != nil {
				return fromRepo(err, "inbound", inbound.ID)
			}
			w.emit(EventTransactionDeleted, transactionEvent(inbound))
		}

		if err := w.transactions.UpdateFields(ctx, t.ID, map[string]interface{}{
			"status":         model.StatusCancelled,
			"cancelled_at":   now,
			"approved_at":    nil,
			"approved_by_id": nil,
			"rejected_at":    nil,
			"updated_by":     p.actor(),
		}); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		t.Status = model.StatusCancelled
		w.emit(EventTransactionCancelled, transactionEvent(t))
		return nil
	})
	if err != nil {
		s.logFailure("Cancel", id, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"transaction_id": id, "actor": p.UserID}).Info("purchase cancelled")
	return s.reload(ctx, id)
}

func reopenedFields(status model.TransactionStatus, p Principal) map[string]interface{} {
	return map[string]interface{}{
		"status":         status,
		"approved_at":    nil,
		"approved_by_id": nil,
		"rejected_at":    nil,
		"cancelled_at":   nil,
		"updated_by":     p.actor(),
	}
}

func (s *transactionService) Submit(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	return s.transition(ctx, p, id, actionSubmit, model.StatusDraft, EventTransactionUpdated, func(time.Time) map[string]interface{} {
		return reopenedFields(model.StatusPending, p)
	})
}

func (s *transactionService) Resubmit(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	return s.transition(ctx, p, id, actionResubmit, model.StatusCancelled, EventTransactionUpdated, func(time.Time) map[string]interface{} {
		return reopenedFields(model.StatusPending, p)
	})
}

func (s *transactionService) MoveToDraft(ctx context.Context, p Principal, id uuid.UUID) (*model.Transaction, error) {
	return s.transition(ctx, p, id, actionMoveToDraft, model.StatusCancelled, EventTransactionUpdated, func(time.Time) map[string]interface{} {
		return reopenedFields(model.StatusDraft, p)
	})
}

// transition moves a transaction out of from with no stock effect.
func (s *transactionService) transition(
	ctx context.Context,
	p Principal,
	id uuid.UUID,
	action string,
	from model.TransactionStatus,
	event string,
	fields func(now time.Time) map[string]interface{},
) (*model.Transaction, error) {
	now := s.now()
	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := w.transactions.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "transaction", id)
		}
		if err := checkOwner(p, t); err != nil {
			return err
		}
		if t.Status != from {
			return &TransitionError{Action: action, From: t.Status}
		}
		update := fields(now)
		if err := w.transactions.UpdateFields(ctx, t.ID, update); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		t.Status = update["status"].(model.TransactionStatus)
		w.emit(event, transactionEvent(t))
		return nil
	})
	if err != nil {
		s.logFailure(action, id, err)
		return nil, err
	}
	return s.reload(ctx, id)
}

// checkOwner lets admins act on any transaction and users only on their own.
func checkOwner(p Principal, t *model.Transaction) error {
	if p.IsAdmin() || t.RequestedByID == p.UserID {
		return nil
	}
	return ErrForbidden
}

// DeleteDraft permanently removes a draft. For a purchase, an unapproved
// linked inbound goes with it.
func (s *transactionService) DeleteDraft(ctx context.Context, p Principal, id uuid.UUID) error {
	err := s.inTx(ctx, p, func(w *unitOfWork) error {
		t, err := w.transactions.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fromRepo(err, "transaction", id)
		}
		if err := checkOwner(p, t); err != nil {
			return err
		}
		if t.Status != model.StatusDraft {
			return &TransitionError{Action: actionDelete, From: t.Status}
		}

		if t.Type == model.TxPurchase {
			inbound, err := w.transactions.FindLinkedInbound(ctx, t.ID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
			case err != nil:
				return internalErr(err)
			case inbound.Status == model.StatusApproved:
				return fmt.Errorf("%w: linked inbound %s is already approved", ErrInvalidTransition, inbound.ID)
			default:
				if err := w.transactions.Delete(ctx, inbound.ID); err != nil {
					return fromRepo(err, "inbound", inbound.ID)
				}
				w.emit(EventTransactionDeleted, transactionEvent(inbound))
			}
		}

		if err := w.transactions.Delete(ctx, t.ID); err != nil {
			return fromRepo(err, "transaction", t.ID)
		}
		w.emit(EventTransactionDeleted, transactionEvent(t))
		return nil
	})
	if err != nil {
		s.logFailure("DeleteDraft", id, err)
	}
	return err
}
