package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	internalstorage "github.com/LENAX/grocery-core/internal/storage"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/storage"
)

var log = logger.WithComponent("store")

// SQLOption SQL存储配置选项
type SQLOption func(*SQLStore)

// WithClock 替换存储使用的当前时间
func WithClock(now func() time.Time) SQLOption {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPool 设置连接池参数，对SQLite不生效
func WithPool(maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) SQLOption {
	return func(s *SQLStore) {
		if s.dialect.Name() == "sqlite" {
			return
		}
		if maxOpen > 0 {
			s.db.SetMaxOpenConns(maxOpen)
		}
		if maxIdle > 0 {
			s.db.SetMaxIdleConns(maxIdle)
		}
		if maxLifetime > 0 {
			s.db.SetConnMaxLifetime(maxLifetime)
		}
		if maxIdleTime > 0 {
			s.db.SetConnMaxIdleTime(maxIdleTime)
		}
	}
}

// SQLStore 基于sqlx的存储实现（对外导出）
// 同时实现Store与Decliner
type SQLStore struct {
	db      *sqlx.DB
	dialect storage.Dialect
	closer  func() error
	now     func() time.Time
	syncing atomic.Bool
}

// Open 按数据库类型打开存储（sqlite/mysql/postgres）
func Open(dbType, dsn string, opts ...SQLOption) (*SQLStore, error) {
	factory, err := internalstorage.NewDatabaseFactory(dbType, dsn)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLStore(factory.DB(), factory.Dialect(), opts...)
	if err != nil {
		factory.Close()
		return nil, err
	}
	s.closer = factory.Close
	return s, nil
}

// NewSQLStore 使用已打开的连接创建存储并初始化表结构
func NewSQLStore(db *sqlx.DB, dialect storage.Dialect, opts ...SQLOption) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		closer:  db.Close,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(s.dialect.CreateTableSQL(stmt)); err != nil {
			return err
		}
	}
	return nil
}

// Close 关闭数据库连接（对外导出）
func (s *SQLStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC()
}

// ========== app_state ==========

func (s *SQLStore) getState(ctx context.Context, q sqlx.QueryerContext, key string) (string, bool, error) {
	var value string
	err := sqlx.GetContext(ctx, q, &value, s.db.Rebind("SELECT state_value FROM app_state WHERE state_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("读取状态 %s 失败: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) setState(ctx context.Context, e sqlx.ExtContext, key, value string) error {
	query := s.dialect.UpsertSQL("app_state",
		[]string{"state_key", "state_value", "updated_at"},
		"state_key",
		[]string{"state_value", "updated_at"},
	)
	_, err := sqlx.NamedExecContext(ctx, e, query, map[string]interface{}{
		"state_key":   key,
		"state_value": value,
		"updated_at":  s.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("写入状态 %s 失败: %w", key, err)
	}
	return nil
}

// ========== 用户 ==========

// InitializeUser 初始化本地用户身份，已存在时直接返回
func (s *SQLStore) InitializeUser(ctx context.Context) error {
	_, err := s.CurrentUser(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotAuthenticated) {
		return err
	}

	user := User{ID: uuid.NewString(), CreatedAt: s.timestamp()}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		"INSERT INTO users (id, name, created_at) VALUES (:id, :name, :created_at)", user); err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	if err := s.setState(ctx, tx, stateCurrentUser, user.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	log.Infof("✅ [存储] 已创建本地用户: UserID=%s", user.ID)
	return nil
}

// CurrentUser 返回当前本地用户，尚未初始化时返回ErrNotAuthenticated
func (s *SQLStore) CurrentUser(ctx context.Context) (User, error) {
	id, ok, err := s.getState(ctx, s.db, stateCurrentUser)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, fmt.Errorf("尚未初始化用户: %w", ErrNotAuthenticated)
	}

	var user User
	err = s.db.GetContext(ctx, &user, s.db.Rebind("SELECT id, name, created_at FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("用户 %s 不存在: %w", id, ErrNotAuthenticated)
	}
	if err != nil {
		return User{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

// SetUserName 设置当前用户名称，设置后才能接受邀请
func (s *SQLStore) SetUserName(ctx context.Context, name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("用户名称不能为空")
	}
	if err := s.InitializeUser(ctx); err != nil {
		return User{}, err
	}
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return User{}, err
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET name = ? WHERE id = ?"), name, user.ID); err != nil {
		return User{}, fmt.Errorf("更新用户名称失败: %w", err)
	}
	user.Name = name
	log.Infof("✅ [存储] 用户名称已更新: UserID=%s, Name=%s", user.ID, name)
	return user, nil
}

// ========== 清单与邀请 ==========

// CreateList 为当前用户创建清单，创建者自动成为成员
func (s *SQLStore) CreateList(ctx context.Context, name string) (GroceryList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return GroceryList{}, fmt.Errorf("清单名称不能为空")
	}
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return GroceryList{}, err
	}

	list := GroceryList{ID: uuid.NewString(), Name: name, OwnerID: user.ID, CreatedAt: s.timestamp()}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return GroceryList{}, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		"INSERT INTO grocery_lists (id, name, owner_id, created_at) VALUES (:id, :name, :owner_id, :created_at)", list); err != nil {
		return GroceryList{}, fmt.Errorf("创建清单失败: %w", err)
	}
	if err := s.addMember(ctx, tx, list.ID, user.ID); err != nil {
		return GroceryList{}, err
	}
	if err := tx.Commit(); err != nil {
		return GroceryList{}, fmt.Errorf("提交事务失败: %w", err)
	}
	return list, nil
}

// Lists 返回当前用户加入的清单
func (s *SQLStore) Lists(ctx context.Context) ([]GroceryList, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	lists := make([]GroceryList, 0)
	err = s.db.SelectContext(ctx, &lists, s.db.Rebind(`
		SELECT l.id, l.name, l.owner_id, l.created_at
		FROM grocery_lists l
		JOIN list_members m ON m.list_id = l.id
		WHERE m.user_id = ?
		ORDER BY l.created_at, l.id`), user.ID)
	if err != nil {
		return nil, fmt.Errorf("查询清单失败: %w", err)
	}
	return lists, nil
}

func (s *SQLStore) addMember(ctx context.Context, tx *sqlx.Tx, listID, userID string) error {
	var count int
	if err := tx.GetContext(ctx, &count,
		tx.Rebind("SELECT COUNT(*) FROM list_members WHERE list_id = ? AND user_id = ?"), listID, userID); err != nil {
		return fmt.Errorf("查询成员失败: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO list_members (list_id, user_id, joined_at) VALUES (?, ?, ?)"),
		listID, userID, s.timestamp()); err != nil {
		return fmt.Errorf("添加成员失败: %w", err)
	}
	return nil
}

// CreateInvitation 为清单创建邀请，ttl<=0表示不过期
func (s *SQLStore) CreateInvitation(ctx context.Context, listID string, ttl time.Duration) (Invitation, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return Invitation{}, err
	}

	var list GroceryList
	err = s.db.GetContext(ctx, &list, s.db.Rebind("SELECT id, name, owner_id, created_at FROM grocery_lists WHERE id = ?"), listID)
	if errors.Is(err, sql.ErrNoRows) {
		return Invitation{}, fmt.Errorf("清单 %s 不存在", listID)
	}
	if err != nil {
		return Invitation{}, fmt.Errorf("查询清单失败: %w", err)
	}

	now := s.timestamp()
	inv := Invitation{
		Token:     uuid.NewString(),
		ListID:    list.ID,
		ListName:  list.Name,
		FromName:  user.Name,
		Status:    InvitationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl > 0 {
		inv.ExpiresAt = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}

	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO invitations (token, list_id, from_name, status, expires_at, created_at, updated_at)
		VALUES (:token, :list_id, :from_name, :status, :expires_at, :created_at, :updated_at)`, inv); err != nil {
		return Invitation{}, fmt.Errorf("创建邀请失败: %w", err)
	}
	log.Infof("✅ [存储] 已创建邀请: List=%s, Token=%s", list.Name, inv.Token)
	return inv, nil
}

const selectInvitation = `
	SELECT i.token, i.list_id, COALESCE(l.name, '') AS list_name, i.from_name, i.status,
		i.expires_at, i.created_at, i.updated_at
	FROM invitations i
	LEFT JOIN grocery_lists l ON l.id = i.list_id
	WHERE i.token = ?`

// GetInvitation 按token查询邀请
func (s *SQLStore) GetInvitation(ctx context.Context, token string) (Invitation, error) {
	return s.getInvitation(ctx, s.db, token)
}

func (s *SQLStore) getInvitation(ctx context.Context, q sqlx.QueryerContext, token string) (Invitation, error) {
	var inv Invitation
	err := sqlx.GetContext(ctx, q, &inv, s.db.Rebind(selectInvitation), token)
	if errors.Is(err, sql.ErrNoRows) {
		return Invitation{}, ErrInvitationNotFound
	}
	if err != nil {
		return Invitation{}, fmt.Errorf("查询邀请失败: %w", err)
	}
	return inv, nil
}

// AcceptInvitation 按token接受邀请（实现Store接口）
// 业务失败通过AcceptResult返回，只有数据库错误才返回error
func (s *SQLStore) AcceptInvitation(ctx context.Context, token string) (AcceptResult, error) {
	user, err := s.CurrentUser(ctx)
	if errors.Is(err, ErrNotAuthenticated) || (err == nil && !user.Authenticated()) {
		return AcceptResult{Success: false, Error: ErrNotAuthenticated.Error()}, nil
	}
	if err != nil {
		return AcceptResult{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	inv, err := s.getInvitation(ctx, tx, token)
	if errors.Is(err, ErrInvitationNotFound) {
		return AcceptResult{Success: false, Error: ErrInvitationNotFound.Error()}, nil
	}
	if err != nil {
		return AcceptResult{}, err
	}

	now := s.timestamp()
	switch {
	case inv.Status == InvitationStatusExpired:
		return AcceptResult{Success: false, Error: ErrInvitationExpired.Error()}, nil
	case inv.Status != InvitationStatusPending:
		return AcceptResult{Success: false, Error: ErrInvitationUsed.Error()}, nil
	case inv.IsExpired(now):
		if err := s.updateStatus(ctx, tx, token, InvitationStatusExpired); err != nil {
			return AcceptResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return AcceptResult{}, fmt.Errorf("提交事务失败: %w", err)
		}
		return AcceptResult{Success: false, Error: ErrInvitationExpired.Error()}, nil
	}

	if err := s.addMember(ctx, tx, inv.ListID, user.ID); err != nil {
		return AcceptResult{}, err
	}
	if err := s.updateStatus(ctx, tx, token, InvitationStatusAccepted); err != nil {
		return AcceptResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return AcceptResult{}, fmt.Errorf("提交事务失败: %w", err)
	}

	log.Infof("✅ [存储] 邀请已接受: List=%s, UserID=%s", inv.ListName, user.ID)
	return AcceptResult{Success: true}, nil
}

// DeclineInvitation 将待处理邀请标记为已拒绝（实现Decliner接口）
func (s *SQLStore) DeclineInvitation(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE invitations SET status = ?, updated_at = ? WHERE token = ? AND status = ?"),
		InvitationStatusDeclined, s.timestamp(), token, InvitationStatusPending)
	if err != nil {
		return fmt.Errorf("更新邀请失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	if _, err := s.GetInvitation(ctx, token); err != nil {
		return err
	}
	return ErrInvitationUsed
}

func (s *SQLStore) updateStatus(ctx context.Context, tx *sqlx.Tx, token string, status InvitationStatus) error {
	if _, err := tx.ExecContext(ctx,
		tx.Rebind("UPDATE invitations SET status = ?, updated_at = ? WHERE token = ?"),
		status, s.timestamp(), token); err != nil {
		return fmt.Errorf("更新邀请状态失败: %w", err)
	}
	return nil
}

// ========== 同步 ==========

// StartSync 启用后台同步并立即执行一次同步（实现Store接口）
func (s *SQLStore) StartSync() {
	ctx := context.Background()
	s.syncing.Store(true)
	if err := s.setState(ctx, s.db, stateSyncStarted, s.timestamp().Format(time.RFC3339)); err != nil {
		log.Warnf("⚠️ [存储] 记录同步启动时间失败: %v", err)
	}
	if _, err := s.SyncOnce(ctx); err != nil {
		log.Warnf("⚠️ [存储] 首次同步失败: %v", err)
	}
	log.Infof("🔄 [存储] 后台同步已启用")
}

// SyncEnabled 返回是否已启用同步
func (s *SQLStore) SyncEnabled() bool {
	return s.syncing.Load()
}

// SyncOnce 执行一次同步：将已过期的待处理邀请标记为expired，并记录同步时间
func (s *SQLStore) SyncOnce(ctx context.Context) (SyncReport, error) {
	now := s.timestamp()
	report := SyncReport{SyncedAt: now}

	rows := make([]Invitation, 0)
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT token, list_id, '' AS list_name, from_name, status, expires_at, created_at, updated_at
		FROM invitations WHERE status = ? AND expires_at IS NOT NULL`), InvitationStatusPending); err != nil {
		return report, fmt.Errorf("查询待处理邀请失败: %w", err)
	}

	for _, inv := range rows {
		if !inv.IsExpired(now) {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			s.db.Rebind("UPDATE invitations SET status = ?, updated_at = ? WHERE token = ? AND status = ?"),
			InvitationStatusExpired, now, inv.Token, InvitationStatusPending); err != nil {
			return report, fmt.Errorf("标记过期邀请失败: %w", err)
		}
		report.Expired++
	}

	if err := s.setState(ctx, s.db, stateLastSync, now.Format(time.RFC3339)); err != nil {
		return report, err
	}
	log.Debugf("[存储] 同步完成: 过期邀请=%d", report.Expired)
	return report, nil
}

// LastSyncAt 返回最近一次同步时间
func (s *SQLStore) LastSyncAt(ctx context.Context) (time.Time, bool, error) {
	value, ok, err := s.getState(ctx, s.db, stateLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("解析同步时间失败: %w", err)
	}
	return t, true, nil
}

// ========== 横幅 ==========

// SetBanner 持久化最近一次横幅（实现Store接口），失败只记录日志
func (s *SQLStore) SetBanner(message string) {
	if err := s.setState(context.Background(), s.db, stateBanner, message); err != nil {
		log.Warnf("⚠️ [存储] 保存横幅失败: %v", err)
	}
}

// Banner 返回最近一次持久化的横幅
func (s *SQLStore) Banner(ctx context.Context) (string, error) {
	value, _, err := s.getState(ctx, s.db, stateBanner)
	return value, err
}

// 确保实现接口
var (
	_ Store     = (*SQLStore)(nil)
	_ Decliner  = (*SQLStore)(nil)
	_ Closer    = (*SQLStore)(nil)
	_ Directory = (*SQLStore)(nil)
	_ Store     = (*NoopStore)(nil)
)
