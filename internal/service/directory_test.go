package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/soundwave-agency/agency-server/internal/database"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/repository"
)

// memDirectory is an in-memory stand-in for the Postgres tables. WithTx
// snapshots the state and restores it when fn fails, so rollback behaviour
// is observable.
type memDirectory struct {
	mu sync.Mutex

	state memState

	niches    []model.Niche
	campaigns []model.Campaign

	// failures keyed by operation name, e.g. "account.delete"
	failures map[string]error
	clock    time.Time
}

type memState struct {
	nextAccountID int64
	nextClientID  int64
	accounts      map[int64]model.Account
	clients       map[int64]model.Client
	clientNiches  map[int64][]int64
	clientCamps   map[int64][]int64
}

func (s memState) clone() memState {
	c := memState{
		nextAccountID: s.nextAccountID,
		nextClientID:  s.nextClientID,
		accounts:      make(map[int64]model.Account, len(s.accounts)),
		clients:       make(map[int64]model.Client, len(s.clients)),
		clientNiches:  make(map[int64][]int64, len(s.clientNiches)),
		clientCamps:   make(map[int64][]int64, len(s.clientCamps)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.clientNiches {
		c.clientNiches[k] = append([]int64(nil), v...)
	}
	for k, v := range s.clientCamps {
		c.clientCamps[k] = append([]int64(nil), v...)
	}
	return c
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		state: memState{
			nextAccountID: 1,
			nextClientID:  1,
			accounts:      map[int64]model.Account{},
			clients:       map[int64]model.Client{},
			clientNiches:  map[int64][]int64{},
			clientCamps:   map[int64][]int64{},
		},
		niches: []model.Niche{
			{ID: 1, Name: "Hip-Hop"},
			{ID: 2, Name: "Pop"},
			{ID: 3, Name: "EDM"},
			{ID: 4, Name: "Indie"},
			{ID: 5, Name: "Lifestyle"},
		},
		campaigns: []model.Campaign{
			{ID: 1, Title: "Summer Release Push", Status: model.CampaignStatusActive},
			{ID: 2, Title: "Playlist Pitching", Status: model.CampaignStatusActive},
			{ID: 3, Title: "Holiday Throwback", Status: "archived"},
		},
		failures: map[string]error{},
		clock:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (d *memDirectory) WithTx(ctx context.Context, fn database.TxFunc) error {
	d.mu.Lock()
	saved := d.state.clone()
	d.mu.Unlock()

	err := fn(nil)

	if err != nil {
		d.mu.Lock()
		d.state = saved
		d.mu.Unlock()
	}
	return err
}

func (d *memDirectory) fail(op string) error {
	return d.failures[op]
}

func (d *memDirectory) accountCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.state.accounts)
}

func (d *memDirectory) clientCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.state.clients)
}

func (d *memDirectory) account(id int64) (model.Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.state.accounts[id]
	return a, ok
}

// addManager inserts a manager account directly and returns its id.
func (d *memDirectory) addManager(name, email, passwordHash string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.state.nextAccountID
	d.state.nextAccountID++
	d.state.accounts[id] = model.Account{
		ID: id, Name: name, Email: email, PasswordHash: &passwordHash,
		Role: model.RoleManager, IsVerified: true, CreatedAt: d.clock,
	}
	return id
}

func (d *memDirectory) joined(c model.Client) model.Client {
	a := d.state.accounts[c.AccountID]
	c.Name = a.Name
	c.Email = a.Email
	return c
}

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &pq.Error{Code: "23503", Constraint: constraint}
}

// accounts

type memAccountRepo struct{ d *memDirectory }

func (r *memAccountRepo) WithTx(*sqlx.Tx) repository.AccountRepository { return r }

func (r *memAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if a, ok := r.d.state.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *memAccountRepo) FindByEmailAndRole(ctx context.Context, email string, role model.Role) (*model.Account, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, a := range r.d.state.accounts {
		if a.Email == email && a.Role == role {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) FindClientByUsername(ctx context.Context, username string) (*model.ClientAccount, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, c := range r.d.state.clients {
		if c.Username == username {
			a := r.d.state.accounts[c.AccountID]
			return &model.ClientAccount{Account: a, ClientID: c.ID, Username: c.Username, Avatar: c.Avatar}, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	if err := r.d.fail("account.create"); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if params.Role == model.RoleManager {
		for _, a := range r.d.state.accounts {
			if a.Role == model.RoleManager && a.Email == params.Email {
				return nil, uniqueViolation("users_manager_email_key")
			}
		}
	}
	id := r.d.state.nextAccountID
	r.d.state.nextAccountID++
	hash := params.PasswordHash
	a := model.Account{
		ID: id, Name: params.Name, Email: params.Email, PasswordHash: &hash,
		Role: params.Role, IsVerified: params.IsVerified, CreatedAt: r.d.clock,
	}
	r.d.state.accounts[id] = a
	return &a, nil
}

func (r *memAccountRepo) UpdateName(ctx context.Context, id int64, name string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.state.accounts[id]
	if !ok {
		return false, nil
	}
	a.Name = name
	r.d.state.accounts[id] = a
	return true, nil
}

func (r *memAccountRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.state.accounts[id]
	if !ok {
		return false, nil
	}
	a.PasswordHash = &passwordHash
	r.d.state.accounts[id] = a
	return true, nil
}

func (r *memAccountRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if err := r.d.fail("account.delete"); err != nil {
		return false, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.state.accounts[id]; !ok {
		return false, nil
	}
	delete(r.d.state.accounts, id)
	return true, nil
}

// clients

type memClientRepo struct{ d *memDirectory }

func (r *memClientRepo) WithTx(*sqlx.Tx) repository.ClientRepository { return r }

func (r *memClientRepo) List(ctx context.Context) ([]model.ClientSummary, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	out := []model.ClientSummary{}
	for _, c := range r.d.state.clients {
		var names []string
		for _, id := range r.d.state.clientNiches[c.ID] {
			for _, n := range r.d.niches {
				if n.ID == id {
					names = append(names, n.Name)
				}
			}
		}
		sort.Strings(names)
		active := 0
		for _, id := range r.d.state.clientCamps[c.ID] {
			for _, cp := range r.d.campaigns {
				if cp.ID == id && cp.Status == model.CampaignStatusActive {
					active++
				}
			}
		}
		out = append(out, model.ClientSummary{
			Client:          r.d.joined(c),
			Niches:          strings.Join(names, ", "),
			ActiveCampaigns: active,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memClientRepo) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	if err := r.d.fail("client.find"); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.state.clients[id]
	if !ok {
		return nil, nil
	}
	c = r.d.joined(c)
	return &c, nil
}

func (r *memClientRepo) FindByAccountID(ctx context.Context, accountID int64) (*model.Client, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, c := range r.d.state.clients {
		if c.AccountID == accountID {
			c = r.d.joined(c)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memClientRepo) Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error) {
	if err := r.d.fail("client.create"); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, c := range r.d.state.clients {
		if c.Username == params.Username {
			return nil, uniqueViolation("clients_username_key")
		}
	}
	id := r.d.state.nextClientID
	r.d.state.nextClientID++
	managerID := params.ManagerID
	c := model.Client{
		ID: id, AccountID: params.AccountID, Username: params.Username, TikTokLink: params.TikTokLink,
		BasePrice: params.BasePrice, Status: params.Status, ManagerID: &managerID,
		CreatedAt: r.d.clock.Add(time.Duration(id) * time.Minute),
	}
	r.d.state.clients[id] = c
	return &c, nil
}

func (r *memClientRepo) Update(ctx context.Context, id int64, params model.UpdateClientParams) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.state.clients[id]
	if !ok {
		return false, nil
	}
	if params.Username != nil {
		for _, other := range r.d.state.clients {
			if other.ID != id && other.Username == *params.Username {
				return false, uniqueViolation("clients_username_key")
			}
		}
		c.Username = *params.Username
	}
	if params.TikTokLink != nil {
		c.TikTokLink = *params.TikTokLink
	}
	if params.BasePrice != nil {
		c.BasePrice = *params.BasePrice
	}
	if params.Status != nil {
		c.Status = *params.Status
	}
	r.d.state.clients[id] = c
	return true, nil
}

func (r *memClientRepo) UpdateAvatar(ctx context.Context, id int64, avatar string) (bool, error) {
	if err := r.d.fail("client.avatar"); err != nil {
		return false, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	c, ok := r.d.state.clients[id]
	if !ok {
		return false, nil
	}
	c.Avatar = &avatar
	r.d.state.clients[id] = c
	return true, nil
}

func (r *memClientRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.state.clients[id]; !ok {
		return false, nil
	}
	delete(r.d.state.clients, id)
	delete(r.d.state.clientNiches, id)
	delete(r.d.state.clientCamps, id)
	return true, nil
}

func (r *memClientRepo) Stats(ctx context.Context) (*model.ClientStats, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stats := &model.ClientStats{Total: len(r.d.state.clients)}
	for _, c := range r.d.state.clients {
		switch c.Status {
		case model.ClientStatusPending:
			stats.Pending++
		case model.ClientStatusActive:
			stats.Active++
		}
	}
	return stats, nil
}

// associations

type memAssocRepo struct{ d *memDirectory }

func (r *memAssocRepo) WithTx(*sqlx.Tx) repository.AssociationRepository { return r }

func (r *memAssocRepo) NicheIDs(ctx context.Context, clientID int64) ([]int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return sortedIDs(r.d.state.clientNiches[clientID]), nil
}

func (r *memAssocRepo) CampaignIDs(ctx context.Context, clientID int64) ([]int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return sortedIDs(r.d.state.clientCamps[clientID]), nil
}

func (r *memAssocRepo) ReplaceNiches(ctx context.Context, clientID int64, ids []int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	delete(r.d.state.clientNiches, clientID)
	known := map[int64]bool{}
	for _, n := range r.d.niches {
		known[n.ID] = true
	}
	set, err := dedupeKnown(ids, known, "client_niches_niche_id_fkey")
	if err != nil {
		return err
	}
	r.d.state.clientNiches[clientID] = set
	return nil
}

func (r *memAssocRepo) ReplaceCampaigns(ctx context.Context, clientID int64, ids []int64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	delete(r.d.state.clientCamps, clientID)
	known := map[int64]bool{}
	for _, c := range r.d.campaigns {
		known[c.ID] = true
	}
	set, err := dedupeKnown(ids, known, "client_campaigns_campaign_id_fkey")
	if err != nil {
		return err
	}
	r.d.state.clientCamps[clientID] = set
	return nil
}

func dedupeKnown(ids []int64, known map[int64]bool, constraint string) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, id := range ids {
		if !known[id] {
			return nil, foreignKeyViolation(constraint)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64{}, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// catalog

type memCatalogRepo struct{ d *memDirectory }

func (r *memCatalogRepo) Niches(ctx context.Context) ([]model.Niche, error) {
	return append([]model.Niche{}, r.d.niches...), nil
}

func (r *memCatalogRepo) ActiveCampaigns(ctx context.Context) ([]model.Campaign, error) {
	out := []model.Campaign{}
	for _, c := range r.d.campaigns {
		if c.Status == model.CampaignStatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

var errInjected = errors.New("injected failure")

func newTestClientService(d *memDirectory) *ClientService {
	return NewClientService(d, &memClientRepo{d}, &memAccountRepo{d}, &memAssocRepo{d}, &memCatalogRepo{d}, 1)
}
