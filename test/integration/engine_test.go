package integration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/seat-booking-engine/internal/adapters/crdb"
	"github.com/robertarktes/seat-booking-engine/internal/config"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
	"github.com/robertarktes/seat-booking-engine/internal/engine"
	"github.com/robertarktes/seat-booking-engine/internal/jobs"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type noopAuditor struct{}

func (noopAuditor) Record(ctx context.Context, entry domain.AuditEntry) {}

// captureProvider stands in for a real gateway and records every
// request it receives.
type captureProvider struct {
	mu       sync.Mutex
	requests []engine.PaymentRequest
	outcome  domain.PaymentOutcome
}

func (p *captureProvider) Process(_ context.Context, req engine.PaymentRequest) (domain.PaymentOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.outcome, nil
}

func (p *captureProvider) seen() []engine.PaymentRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.PaymentRequest(nil), p.requests...)
}

type testEnv struct {
	cfg  *config.Config
	repo *crdb.Repository
	eng  *engine.Engine
	log  observability.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	crdbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { crdbContainer.Terminate(ctx) })

	dsn, err := crdbContainer.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn+"/defaultdb?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if err := crdb.Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		LockTTL:        5 * time.Minute,
		PaymentWindow:  10 * time.Minute,
		RetentionGrace: 48 * time.Hour,
		RefundPercent:  50,
		Currency:       "USD",
	}
	log := observability.NewLogger()
	repo := crdb.NewRepository(pool)
	eng := engine.New(repo, noopAuditor{}, engine.SimulatedProvider{}, cfg, log)
	return &testEnv{cfg: cfg, repo: repo, eng: eng, log: log}
}

func (env *testEnv) createEvent(t *testing.T, totalSeats int, pricePerSeat int64) domain.Event {
	t.Helper()
	event := domain.Event{
		ID:             uuid.New(),
		Name:           "integration event",
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		EventDate:      time.Now().Add(72 * time.Hour),
		Amount:         pricePerSeat,
		Currency:       "USD",
	}
	if err := env.repo.InsertEvent(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	return event
}

func (env *testEnv) availableSeats(t *testing.T, eventID uuid.UUID) int {
	t.Helper()
	event, err := env.repo.GetEvent(context.Background(), eventID)
	if err != nil {
		t.Fatal(err)
	}
	return event.AvailableSeats
}

func TestLockConfirmPaySucceeds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 10, 2500)

	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      3,
		IdempotencyKey: "it-lock-success-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := env.availableSeats(t, event.ID); got != 7 {
		t.Fatalf("expected 7 seats after lock, got %d", got)
	}

	booking, err := env.eng.Confirm(ctx, lock.ID, "corr-1")
	if err != nil {
		t.Fatal(err)
	}
	if booking.Status != domain.PaymentPending {
		t.Fatalf("expected PAYMENT_PENDING, got %s", booking.Status)
	}
	if booking.Amount != 7500 {
		t.Fatalf("expected amount 7500, got %d", booking.Amount)
	}

	// Re-confirming the same lock returns the same booking.
	again, err := env.eng.Confirm(ctx, lock.ID, "corr-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != booking.ID {
		t.Fatalf("expected idempotent confirm, got second booking %s", again.ID)
	}

	result, err := env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeSuccess,
		IdempotencyKey: "it-pay-success-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.BookingStatus != domain.Confirmed || result.PaymentStatus != domain.AttemptSuccess {
		t.Fatalf("unexpected result %+v", result)
	}

	confirmed, err := env.eng.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed.Status != domain.Confirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
	}
	fetchedLock, err := env.repo.GetLock(ctx, lock.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetchedLock.Status != domain.LockConsumed {
		t.Fatalf("expected CONSUMED lock, got %s", fetchedLock.Status)
	}
	if got := env.availableSeats(t, event.ID); got != 7 {
		t.Fatalf("confirmed booking must keep seats deducted, got %d", got)
	}

	// Replay of the payment key returns the stored result, even with a
	// contradictory forced outcome, and moves nothing.
	replay, err := env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeFailure,
		IdempotencyKey: "it-pay-success-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if replay.BookingStatus != domain.Confirmed {
		t.Fatalf("expected replayed CONFIRMED result, got %s", replay.BookingStatus)
	}
	if got := env.availableSeats(t, event.ID); got != 7 {
		t.Fatalf("replay must not move seats, got %d", got)
	}
}

func TestPaymentFailureRestoresSeats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 5, 1000)

	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-lock-failure-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := env.eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	result, err := env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeFailure,
		IdempotencyKey: "it-pay-failure-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.BookingStatus != domain.Failed || result.RefundAmount != booking.Amount {
		t.Fatalf("unexpected failure result %+v", result)
	}

	if got := env.availableSeats(t, event.ID); got != 5 {
		t.Fatalf("expected all 5 seats back, got %d", got)
	}

	// A failed booking rejects further payment attempts under a new key.
	_, err = env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeSuccess,
		IdempotencyKey: "it-pay-failure-002",
	})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCreateLockIdempotentAndBounded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 4, 1000)
	requester := uuid.New()

	first, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    requester,
		SeatCount:      3,
		IdempotencyKey: "it-lock-idemp-001",
	})
	if err != nil {
		t.Fatal(err)
	}

	replay, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    requester,
		SeatCount:      3,
		IdempotencyKey: "it-lock-idemp-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if replay.ID != first.ID {
		t.Fatalf("expected same lock on replay, got %s and %s", first.ID, replay.ID)
	}
	if got := env.availableSeats(t, event.ID); got != 1 {
		t.Fatalf("replay must deduct once, got %d available", got)
	}

	_, err = env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-lock-idemp-002",
	})
	if !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}
	if got := env.availableSeats(t, event.ID); got != 1 {
		t.Fatalf("rejected lock must not touch inventory, got %d", got)
	}
}

func TestConfirmExpiredLockReleasesInline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 1000)

	env.cfg.LockTTL = -time.Minute
	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-lock-expired-001",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.eng.Confirm(ctx, lock.ID, "")
	if !errors.Is(err, domain.ErrLockExpired) {
		t.Fatalf("expected lock expired, got %v", err)
	}
	if got := env.availableSeats(t, event.ID); got != 6 {
		t.Fatalf("expected inline release to restore seats, got %d", got)
	}
	fetched, err := env.repo.GetLock(ctx, lock.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Status != domain.LockExpired {
		t.Fatalf("expected EXPIRED, got %s", fetched.Status)
	}
}

func TestLockExpirySweepIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 8, 1000)

	env.cfg.LockTTL = -time.Minute
	for i, key := range []string{"it-sweep-lock-001", "it-sweep-lock-002"} {
		_, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
			EventID:        event.ID,
			RequesterID:    uuid.New(),
			SeatCount:      i + 1,
			IdempotencyKey: key,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := env.availableSeats(t, event.ID); got != 5 {
		t.Fatalf("expected 5 available before sweep, got %d", got)
	}

	sched := jobs.NewScheduler(env.repo, env.log)
	sched.Register(jobs.NewLockExpiry(env.eng, time.Hour, env.log))

	res, err := sched.RunNow(ctx, jobs.TypeLockExpiry)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 2 || res.Errors != 0 {
		t.Fatalf("expected 2 expired, got %+v", res)
	}
	if got := env.availableSeats(t, event.ID); got != 8 {
		t.Fatalf("expected full restoration, got %d", got)
	}

	// A second sweep finds nothing and credits nothing.
	res, err = sched.RunNow(ctx, jobs.TypeLockExpiry)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 0 {
		t.Fatalf("expected idle second sweep, got %+v", res)
	}
	if got := env.availableSeats(t, event.ID); got != 8 {
		t.Fatalf("second sweep must not over-credit, got %d", got)
	}
}

func TestBookingExpirySweepRefundsAndRestores(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 2000)

	env.cfg.PaymentWindow = -time.Minute
	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-sweep-booking-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := env.eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	// A timed-out attempt leaves the booking to the sweeper.
	result, err := env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeTimeout,
		IdempotencyKey: "it-pay-timeout-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.BookingStatus != domain.PaymentPending {
		t.Fatalf("timeout must not move the booking, got %s", result.BookingStatus)
	}
	if got := env.availableSeats(t, event.ID); got != 4 {
		t.Fatalf("timeout must leave seats deducted, got %d", got)
	}

	sched := jobs.NewScheduler(env.repo, env.log)
	sched.Register(jobs.NewBookingExpiry(env.repo, noopAuditor{}, time.Hour, env.log))

	res, err := sched.RunNow(ctx, jobs.TypeBookingExpiry)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 {
		t.Fatalf("expected 1 expired booking, got %+v", res)
	}

	expired, err := env.eng.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if expired.Status != domain.Expired {
		t.Fatalf("expected EXPIRED, got %s", expired.Status)
	}
	if expired.RefundAmount != booking.Amount {
		t.Fatalf("expected full refund %d, got %d", booking.Amount, expired.RefundAmount)
	}
	if got := env.availableSeats(t, event.ID); got != 6 {
		t.Fatalf("expected seats restored by sweep, got %d", got)
	}
}

func TestCancelConfirmedBookingRefundsHalf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 3000)

	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-cancel-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := env.eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		ForcedOutcome:  domain.OutcomeSuccess,
		IdempotencyKey: "it-cancel-pay-001",
	}); err != nil {
		t.Fatal(err)
	}

	cancelled, err := env.eng.Cancel(ctx, booking.ID, "corr-cancel")
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != domain.Cancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if want := booking.Amount / 2; cancelled.RefundAmount != want {
		t.Fatalf("expected refund %d, got %d", want, cancelled.RefundAmount)
	}
	if got := env.availableSeats(t, event.ID); got != 6 {
		t.Fatalf("expected seats restored on cancel, got %d", got)
	}

	// Cancel is not re-runnable; the booking is terminal.
	_, err = env.eng.Cancel(ctx, booking.ID, "")
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on second cancel, got %v", err)
	}

	// Cancelling a PAYMENT_PENDING booking is rejected.
	lock2, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      1,
		IdempotencyKey: "it-cancel-002",
	})
	if err != nil {
		t.Fatal(err)
	}
	pending, err := env.eng.Confirm(ctx, lock2.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.eng.Cancel(ctx, pending.ID, "")
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition for pending cancel, got %v", err)
	}
}

func TestGatewaySeesCallerKeyExactlyOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 2000)

	gateway := &captureProvider{outcome: domain.OutcomeSuccess}
	eng := engine.New(env.repo, noopAuditor{}, gateway, env.cfg, env.log)

	lock, err := eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-gw-lock-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	const payKey = "it-gw-pay-001"
	if _, err := eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		IdempotencyKey: payKey,
	}); err != nil {
		t.Fatal(err)
	}

	seen := gateway.seen()
	if len(seen) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(seen))
	}
	if seen[0].IdempotencyKey != payKey {
		t.Fatalf("gateway must dedupe on the caller's key, got %q", seen[0].IdempotencyKey)
	}

	// A replay answers from the ledger without reaching the gateway.
	if _, err := eng.CreatePaymentIntent(ctx, engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		IdempotencyKey: payKey,
	}); err != nil {
		t.Fatal(err)
	}
	if got := len(gateway.seen()); got != 1 {
		t.Fatalf("replay must not call the gateway again, got %d calls", got)
	}
}

func TestPaymentOnSweptLockNeverCharges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 2000)

	gateway := &captureProvider{outcome: domain.OutcomeSuccess}
	eng := engine.New(env.repo, noopAuditor{}, gateway, env.cfg, env.log)

	lock, err := eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-swept-lock-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	// The lock-expiry sweeper beats the payment to the lock.
	if err := eng.ReleaseLock(ctx, lock.ID, domain.LockExpired); err != nil {
		t.Fatal(err)
	}

	in := engine.PaymentIntentInput{
		BookingID:      booking.ID,
		Amount:         booking.Amount,
		IdempotencyKey: "it-swept-pay-001",
	}
	if _, err := eng.CreatePaymentIntent(ctx, in); !errors.Is(err, domain.ErrInvalidOrExpiredLock) {
		t.Fatalf("expected invalid or expired lock, got %v", err)
	}

	// The caller retries with the same key; still no charge.
	if _, err := eng.CreatePaymentIntent(ctx, in); !errors.Is(err, domain.ErrInvalidOrExpiredLock) {
		t.Fatalf("expected invalid or expired lock on retry, got %v", err)
	}
	if got := len(gateway.seen()); got != 0 {
		t.Fatalf("unconsumable lock must never reach the gateway, got %d calls", got)
	}
}

func TestBookingExpiryWithoutPaymentRefundsNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 6, 2000)

	env.cfg.PaymentWindow = -time.Minute
	lock, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-unpaid-lock-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	booking, err := env.eng.Confirm(ctx, lock.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	sched := jobs.NewScheduler(env.repo, env.log)
	sched.Register(jobs.NewBookingExpiry(env.repo, noopAuditor{}, time.Hour, env.log))
	res, err := sched.RunNow(ctx, jobs.TypeBookingExpiry)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 {
		t.Fatalf("expected 1 expired booking, got %+v", res)
	}

	expired, err := env.eng.GetBooking(ctx, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if expired.Status != domain.Expired {
		t.Fatalf("expected EXPIRED, got %s", expired.Status)
	}
	if expired.RefundAmount != 0 {
		t.Fatalf("no payment was attempted, expected refund 0, got %d", expired.RefundAmount)
	}
	if got := env.availableSeats(t, event.ID); got != 6 {
		t.Fatalf("expected seats restored, got %d", got)
	}
}

func TestConcurrentLocksNeverOversell(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 10, 1000)

	const workers = 8
	const seatsEach = 3
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		key := fmt.Sprintf("it-race-lock-%03d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			// Serialization aborts are retried with the same key, the
			// contract every caller follows.
			for attempt := 0; attempt < 20; attempt++ {
				_, err = env.eng.CreateLock(ctx, engine.CreateLockInput{
					EventID:        event.ID,
					RequesterID:    uuid.New(),
					SeatCount:      seatsEach,
					IdempotencyKey: key,
				})
				if !errors.Is(err, domain.ErrTransactionAborted) {
					break
				}
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInsufficientInventory):
			losses++
		default:
			t.Fatalf("unexpected outcome: %v", err)
		}
	}

	// 10 seats at 3 apiece affords exactly 3 winners.
	if wins != 3 || losses != workers-3 {
		t.Fatalf("expected 3 winners and %d losers, got %d/%d", workers-3, wins, losses)
	}
	got := env.availableSeats(t, event.ID)
	if got != event.TotalSeats-wins*seatsEach {
		t.Fatalf("expected %d seats left, got %d", event.TotalSeats-wins*seatsEach, got)
	}
	if got < 0 || got > event.TotalSeats {
		t.Fatalf("seat counter out of bounds: %d", got)
	}
}

func TestRecoveryFailsStaleGuardsAndSweeps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	event := env.createEvent(t, 4, 1000)

	env.cfg.LockTTL = -time.Minute
	if _, err := env.eng.CreateLock(ctx, engine.CreateLockInput{
		EventID:        event.ID,
		RequesterID:    uuid.New(),
		SeatCount:      2,
		IdempotencyKey: "it-recovery-001",
	}); err != nil {
		t.Fatal(err)
	}

	// Simulate a crashed run holding the guard.
	if _, err := env.repo.StartJob(ctx, jobs.TypeLockExpiry); err != nil {
		t.Fatal(err)
	}

	sched := jobs.NewScheduler(env.repo, env.log)
	sched.Register(jobs.NewLockExpiry(env.eng, time.Hour, env.log))
	sched.Register(jobs.NewBookingExpiry(env.repo, noopAuditor{}, time.Hour, env.log))

	jobs.Recover(ctx, env.repo, sched, 0, env.log)

	if got := env.availableSeats(t, event.ID); got != 4 {
		t.Fatalf("expected recovery sweep to restore seats, got %d", got)
	}
}
