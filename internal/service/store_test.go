package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/config"
	"github.com/vkarev/bank-core/internal/models"
)

// memStore is an in-memory Store. WithTx serializes transactions with a
// mutex, which models row locking: everything inside one transaction sees
// and mutates a consistent state. On error the pre-transaction snapshot is
// restored, so partial writes never survive.
type memStore struct {
	mu sync.Mutex
	memState

	// injectable failures
	createTransactionErr  error
	linkReceiptErr        error
	forceReceiptCollision int
	forceAccountCollision int
}

type memState struct {
	users          map[uuid.UUID]models.User
	accounts       map[uuid.UUID]models.Account
	transactions   []models.Transaction
	receipts       map[uuid.UUID]models.Receipt
	notifications  []models.Notification
	cardApps       map[uuid.UUID]models.CardApplication
	cards          map[uuid.UUID]models.DebitCard
	loans          map[uuid.UUID]models.Loan
	profileUpdates map[uuid.UUID]models.ProfileUpdate
	billPayments   []models.BillPayment
	statements     []models.BankStatement
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		users:          make(map[uuid.UUID]models.User),
		accounts:       make(map[uuid.UUID]models.Account),
		receipts:       make(map[uuid.UUID]models.Receipt),
		cardApps:       make(map[uuid.UUID]models.CardApplication),
		cards:          make(map[uuid.UUID]models.DebitCard),
		loans:          make(map[uuid.UUID]models.Loan),
		profileUpdates: make(map[uuid.UUID]models.ProfileUpdate),
	}}
}

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(memTxKey{}).(bool)
	return ok
}

// lock takes the store mutex unless the context carries an open
// transaction, which already holds it.
func (m *memStore) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.memState.clone()
	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err != nil {
		m.memState = snapshot
	}
	return err
}

func (s memState) clone() memState {
	out := memState{
		users:          make(map[uuid.UUID]models.User, len(s.users)),
		accounts:       make(map[uuid.UUID]models.Account, len(s.accounts)),
		receipts:       make(map[uuid.UUID]models.Receipt, len(s.receipts)),
		cardApps:       make(map[uuid.UUID]models.CardApplication, len(s.cardApps)),
		cards:          make(map[uuid.UUID]models.DebitCard, len(s.cards)),
		loans:          make(map[uuid.UUID]models.Loan, len(s.loans)),
		profileUpdates: make(map[uuid.UUID]models.ProfileUpdate, len(s.profileUpdates)),
		transactions:   append([]models.Transaction(nil), s.transactions...),
		notifications:  append([]models.Notification(nil), s.notifications...),
		billPayments:   append([]models.BillPayment(nil), s.billPayments...),
		statements:     append([]models.BankStatement(nil), s.statements...),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.receipts {
		out.receipts[k] = v
	}
	for k, v := range s.cardApps {
		out.cardApps[k] = v
	}
	for k, v := range s.cards {
		out.cards[k] = v
	}
	for k, v := range s.loans {
		out.loans[k] = v
	}
	for k, v := range s.profileUpdates {
		out.profileUpdates[k] = v
	}
	return out
}

// UserStore

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	defer m.lock(ctx)()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer m.lock(ctx)()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer m.lock(ctx)()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := u
	return &out, nil
}

func (m *memStore) UpdateUser(ctx context.Context, u *models.User) error {
	defer m.lock(ctx)()
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

// AccountStore

func (m *memStore) CreateAccount(ctx context.Context, a *models.Account) error {
	defer m.lock(ctx)()
	if m.forceAccountCollision > 0 {
		m.forceAccountCollision--
		return models.ErrDuplicate
	}
	for _, existing := range m.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return models.ErrDuplicate
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *memStore) FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	defer m.lock(ctx)()
	a, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	out := a
	return &out, nil
}

func (m *memStore) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	defer m.lock(ctx)()
	for _, a := range m.accounts {
		if a.UserID == userID {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (m *memStore) FindAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	defer m.lock(ctx)()
	for _, a := range m.accounts {
		if a.AccountNumber == number {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (m *memStore) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return m.FindAccountByID(ctx, id)
}

func (m *memStore) UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	defer m.lock(ctx)()
	a, ok := m.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Balance = balance
	a.UpdatedAt = time.Now()
	m.accounts[id] = a
	return nil
}

// TransactionStore

func (m *memStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	defer m.lock(ctx)()
	if m.createTransactionErr != nil {
		return m.createTransactionErr
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.transactions = append(m.transactions, *t)
	return nil
}

func (m *memStore) LinkReceipt(ctx context.Context, transactionID, receiptID uuid.UUID) error {
	defer m.lock(ctx)()
	if m.linkReceiptErr != nil {
		return m.linkReceiptErr
	}
	for i, t := range m.transactions {
		if t.ID == transactionID {
			if t.ReceiptID != nil {
				return models.ErrInvalidState
			}
			id := receiptID
			m.transactions[i].ReceiptID = &id
			return nil
		}
	}
	return models.ErrInvalidState
}

func (m *memStore) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Transaction, error) {
	defer m.lock(ctx)()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListTransactionsInPeriod(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]models.Transaction, error) {
	defer m.lock(ctx)()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListUnlinkedTransfers(ctx context.Context, before time.Time) ([]models.Transaction, error) {
	defer m.lock(ctx)()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.Type == models.TransactionTransfer && t.ReceiptID == nil &&
			strings.HasPrefix(t.Description, "Sent to ") && t.CreatedAt.Before(before) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ReceiptStore

func (m *memStore) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	defer m.lock(ctx)()
	if m.forceReceiptCollision > 0 {
		m.forceReceiptCollision--
		return models.ErrDuplicate
	}
	for _, existing := range m.receipts {
		if existing.ReferenceNumber == r.ReferenceNumber {
			return models.ErrDuplicate
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.receipts[r.ID] = *r
	return nil
}

func (m *memStore) FindReceiptByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	defer m.lock(ctx)()
	r, ok := m.receipts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := r
	return &out, nil
}

func (m *memStore) ListReceipts(ctx context.Context, userID uuid.UUID) ([]models.Receipt, error) {
	defer m.lock(ctx)()
	var out []models.Receipt
	for _, r := range m.receipts {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// NotificationStore

func (m *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer m.lock(ctx)()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memStore) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	defer m.lock(ctx)()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	defer m.lock(ctx)()
	for i, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

// CardStore

func (m *memStore) CreateCardApplication(ctx context.Context, a *models.CardApplication) error {
	defer m.lock(ctx)()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.cardApps[a.ID] = *a
	return nil
}

func (m *memStore) FindCardApplicationByID(ctx context.Context, id uuid.UUID) (*models.CardApplication, error) {
	defer m.lock(ctx)()
	a, ok := m.cardApps[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := a
	return &out, nil
}

func (m *memStore) FindOpenCardApplication(ctx context.Context, userID uuid.UUID) (*models.CardApplication, error) {
	defer m.lock(ctx)()
	for _, a := range m.cardApps {
		if a.UserID == userID && (a.Status == models.ApplicationPending || a.Status == models.ApplicationApproved) {
			out := a
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdateCardApplication(ctx context.Context, a *models.CardApplication) error {
	defer m.lock(ctx)()
	if _, ok := m.cardApps[a.ID]; !ok {
		return models.ErrNotFound
	}
	m.cardApps[a.ID] = *a
	return nil
}

func (m *memStore) CreateDebitCard(ctx context.Context, c *models.DebitCard) error {
	defer m.lock(ctx)()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.cards[c.ID] = *c
	return nil
}

func (m *memStore) FindDebitCardByUserID(ctx context.Context, userID uuid.UUID) (*models.DebitCard, error) {
	defer m.lock(ctx)()
	for _, c := range m.cards {
		if c.UserID == userID {
			out := c
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdateDebitCard(ctx context.Context, c *models.DebitCard) error {
	defer m.lock(ctx)()
	if _, ok := m.cards[c.ID]; !ok {
		return models.ErrNotFound
	}
	m.cards[c.ID] = *c
	return nil
}

// LoanStore

func (m *memStore) CreateLoan(ctx context.Context, l *models.Loan) error {
	defer m.lock(ctx)()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	m.loans[l.ID] = *l
	return nil
}

func (m *memStore) FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	defer m.lock(ctx)()
	l, ok := m.loans[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := l
	return &out, nil
}

func (m *memStore) FindOpenLoan(ctx context.Context, userID uuid.UUID) (*models.Loan, error) {
	defer m.lock(ctx)()
	for _, l := range m.loans {
		if l.UserID == userID && (l.Status == models.LoanStatusPending || l.Status == models.LoanStatusApproved) {
			out := l
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdateLoan(ctx context.Context, l *models.Loan) error {
	defer m.lock(ctx)()
	if _, ok := m.loans[l.ID]; !ok {
		return models.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	m.loans[l.ID] = *l
	return nil
}

func (m *memStore) ListLoansDueBefore(ctx context.Context, due time.Time) ([]models.Loan, error) {
	defer m.lock(ctx)()
	var out []models.Loan
	for _, l := range m.loans {
		if l.Status == models.LoanStatusActive && l.NextPaymentDue != nil && !l.NextPaymentDue.After(due) {
			out = append(out, l)
		}
	}
	return out, nil
}

// ProfileStore

func (m *memStore) CreateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error {
	defer m.lock(ctx)()
	if p.RequestedAt.IsZero() {
		p.RequestedAt = time.Now()
	}
	m.profileUpdates[p.ID] = *p
	return nil
}

func (m *memStore) FindProfileUpdateByID(ctx context.Context, id uuid.UUID) (*models.ProfileUpdate, error) {
	defer m.lock(ctx)()
	p, ok := m.profileUpdates[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *memStore) FindPendingProfileUpdate(ctx context.Context, userID uuid.UUID) (*models.ProfileUpdate, error) {
	defer m.lock(ctx)()
	for _, p := range m.profileUpdates {
		if p.UserID == userID && p.Status == models.ApplicationPending {
			out := p
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) UpdateProfileUpdate(ctx context.Context, p *models.ProfileUpdate) error {
	defer m.lock(ctx)()
	if _, ok := m.profileUpdates[p.ID]; !ok {
		return models.ErrNotFound
	}
	m.profileUpdates[p.ID] = *p
	return nil
}

// BillingStore

func (m *memStore) CreateBillPayment(ctx context.Context, b *models.BillPayment) error {
	defer m.lock(ctx)()
	for _, existing := range m.billPayments {
		if existing.ReferenceNumber == b.ReferenceNumber {
			return models.ErrDuplicate
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	m.billPayments = append(m.billPayments, *b)
	return nil
}

func (m *memStore) ListBillPayments(ctx context.Context, userID uuid.UUID) ([]models.BillPayment, error) {
	defer m.lock(ctx)()
	var out []models.BillPayment
	for _, b := range m.billPayments {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateStatement(ctx context.Context, s *models.BankStatement) error {
	defer m.lock(ctx)()
	if s.RequestedAt.IsZero() {
		s.RequestedAt = time.Now()
	}
	m.statements = append(m.statements, *s)
	return nil
}

func (m *memStore) ListStatements(ctx context.Context, userID uuid.UUID) ([]models.BankStatement, error) {
	defer m.lock(ctx)()
	var out []models.BankStatement
	for _, s := range m.statements {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// test helpers

type fixedRate struct{ rate decimal.Decimal }

func (f fixedRate) BaseRate(ctx context.Context) (decimal.Decimal, error) {
	return f.rate, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-jwt-secret",
		HMACSecret: "test-hmac-secret",
		CardFee:    "10.00",
	}
}

func newTestService(store *memStore) *Service {
	svc, err := NewService(store, testLogger(), testConfig(), fixedRate{rate: decimal.NewFromInt(10)})
	if err != nil {
		panic(err)
	}
	return svc
}

// seedUser adds an approved user with an account holding the given balance.
func seedUser(store *memStore, email, number string, balance decimal.Decimal) (*models.User, *models.Account) {
	user := models.User{
		ID:         uuid.New(),
		Email:      email,
		FirstName:  "Test",
		LastName:   "User",
		IsActive:   true,
		IsApproved: true,
		CreatedAt:  time.Now(),
	}
	account := models.Account{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: number,
		AccountType:   models.AccountTypeSavings,
		Balance:       balance,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	store.users[user.ID] = user
	store.accounts[account.ID] = account
	return &user, &account
}

// seedStaff adds a staff member with an empty account.
func seedStaff(store *memStore, email, number string) *models.User {
	user, _ := seedUser(store, email, number, decimal.Zero)
	store.mu.Lock()
	defer store.mu.Unlock()
	staff := store.users[user.ID]
	staff.IsStaff = true
	store.users[user.ID] = staff
	user.IsStaff = true
	return user
}

func balanceOf(store *memStore, id uuid.UUID) decimal.Decimal {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.accounts[id].Balance
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
