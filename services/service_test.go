package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/playverse/contest-system/models"
	"github.com/playverse/contest-system/repositories"
	"github.com/playverse/contest-system/slate"
	"github.com/playverse/contest-system/storage"
)

// Сервисы открывают транзакцию через *sql.DB, а фейковые репозитории
// игнорируют executor. Тестам достаточно драйвера, который умеет только
// Begin/Commit/Rollback и больше ничего.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (*stubConn) Close() error                        { return nil }
func (*stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("stubtx", stubDriver{})
}

func openStubDB() *sql.DB {
	db, err := sql.Open("stubtx", "")
	if err != nil {
		panic(err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Фейковые репозитории ---

type fakeContestRepo struct {
	contests map[int]*models.Contest
	tiers    map[int][]models.PrizeTier
	due      []*models.Contest
	nextID   int

	statusLog      []models.ContestStatus
	matchStatusLog []models.MatchStatus
}

func newFakeContestRepo() *fakeContestRepo {
	return &fakeContestRepo{
		contests: make(map[int]*models.Contest),
		tiers:    make(map[int][]models.PrizeTier),
		nextID:   1,
	}
}

func (r *fakeContestRepo) put(c *models.Contest, tiers []models.PrizeTier) *models.Contest {
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	}
	r.contests[c.ID] = c
	r.tiers[c.ID] = tiers
	return c
}

func (r *fakeContestRepo) Create(ctx context.Context, exec repositories.SQLExecutor, c *models.Contest) error {
	for _, existing := range r.contests {
		if existing.Name == c.Name {
			return repositories.ErrContestNameConflict
		}
	}
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	stored := *c
	r.contests[c.ID] = &stored
	return nil
}

func (r *fakeContestRepo) GetByID(ctx context.Context, id int) (*models.Contest, error) {
	c, ok := r.contests[id]
	if !ok {
		return nil, repositories.ErrContestNotFound
	}
	out := *c
	return &out, nil
}

func (r *fakeContestRepo) List(ctx context.Context, filter repositories.ListContestsFilter) ([]models.Contest, error) {
	out := make([]models.Contest, 0, len(r.contests))
	for _, c := range r.contests {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeContestRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ContestStatus) error {
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.Status = status
	r.statusLog = append(r.statusLog, status)
	return nil
}

func (r *fakeContestRepo) UpdateMatchStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	c, ok := r.contests[id]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.MatchStatus = status
	r.matchStatusLog = append(r.matchStatusLog, status)
	return nil
}

func (r *fakeContestRepo) UpdateBannerKey(ctx context.Context, contestID int, bannerKey *string) error {
	c, ok := r.contests[contestID]
	if !ok {
		return repositories.ErrContestNotFound
	}
	c.BannerKey = bannerKey
	return nil
}

func (r *fakeContestRepo) ReplacePrizeTiers(ctx context.Context, exec repositories.SQLExecutor, contestID int, tiers []models.PrizeTier) error {
	r.tiers[contestID] = append([]models.PrizeTier(nil), tiers...)
	return nil
}

func (r *fakeContestRepo) GetPrizeTiers(ctx context.Context, contestID int) ([]models.PrizeTier, error) {
	return append([]models.PrizeTier(nil), r.tiers[contestID]...), nil
}

func (r *fakeContestRepo) GetContestsDueForStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Contest, error) {
	return r.due, nil
}

func (r *fakeContestRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.contests[id]; !ok {
		return repositories.ErrContestNotFound
	}
	delete(r.contests, id)
	return nil
}

type fakeTeamRepo struct {
	teams  []models.Team
	nextID int
}

func newFakeTeamRepo(teams ...models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{nextID: 1}
	for _, t := range teams {
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
		r.teams = append(r.teams, t)
	}
	return r
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	for _, existing := range r.teams {
		if existing.ContestID == team.ContestID && existing.Slot == team.Slot {
			return repositories.ErrTeamSlotConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now()
	r.teams = append(r.teams, *team)
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	for i := range r.teams {
		if r.teams[i].ID == id {
			out := r.teams[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) ListByContest(ctx context.Context, contestID int) ([]models.Team, error) {
	out := make([]models.Team, 0)
	for _, t := range r.teams {
		if t.ContestID == contestID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) CountByContest(ctx context.Context, contestID int) (int, error) {
	teams, _ := r.ListByContest(ctx, contestID)
	return len(teams), nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	for i := range r.teams {
		if r.teams[i].ID == id {
			r.teams = append(r.teams[:i], r.teams[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

type fakeDeclarationRepo struct {
	byContest map[int]*models.Declaration
	createErr error // если задана, Create всегда возвращает её
}

func newFakeDeclarationRepo() *fakeDeclarationRepo {
	return &fakeDeclarationRepo{byContest: make(map[int]*models.Declaration)}
}

func (r *fakeDeclarationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, d *models.Declaration) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byContest[d.ContestID]; ok {
		return repositories.ErrDeclarationExists
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	stored := *d
	r.byContest[d.ContestID] = &stored
	return nil
}

func (r *fakeDeclarationRepo) GetByContest(ctx context.Context, contestID int) (*models.Declaration, error) {
	d, ok := r.byContest[contestID]
	if !ok {
		return nil, repositories.ErrDeclarationNotFound
	}
	out := *d
	return &out, nil
}

type fakeSlateRepo struct {
	drafts map[int]*slate.Slate
}

func newFakeSlateRepo() *fakeSlateRepo {
	return &fakeSlateRepo{drafts: make(map[int]*slate.Slate)}
}

func (r *fakeSlateRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, s *slate.Slate) error {
	stored := *s
	stored.Slots = append([]slate.Slot(nil), s.Slots...)
	r.drafts[s.ContestID] = &stored
	return nil
}

func (r *fakeSlateRepo) GetByContest(ctx context.Context, contestID int) (*slate.Slate, error) {
	s, ok := r.drafts[contestID]
	if !ok {
		return nil, repositories.ErrSlateNotFound
	}
	out := *s
	out.Slots = append([]slate.Slot(nil), s.Slots...)
	return &out, nil
}

func (r *fakeSlateRepo) DeleteByContest(ctx context.Context, exec repositories.SQLExecutor, contestID int) error {
	delete(r.drafts, contestID)
	return nil
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	stored := *user
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// --- Фейки инфраструктуры ---

type fakeBroadcaster struct {
	messages []interface{}
	rooms    []string
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.rooms = append(b.rooms, roomID)
	b.messages = append(b.messages, message)
}

type fakeNotifier struct {
	sent []*models.Declaration
	err  error
}

func (n *fakeNotifier) SendResultsDeclared(contest *models.Contest, declaration *models.Declaration) error {
	n.sent = append(n.sent, declaration)
	return n.err
}

type fakeUploader struct {
	uploaded []string
	deleted  []string
	baseURL  string
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: u.baseURL + "/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return u.baseURL + "/" + key
}
