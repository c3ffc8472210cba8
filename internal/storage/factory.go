package storage

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/grocery-core/pkg/storage"
	"github.com/LENAX/grocery-core/pkg/storage/mysql"
	"github.com/LENAX/grocery-core/pkg/storage/postgres"
	pkgsqlite "github.com/LENAX/grocery-core/pkg/storage/sqlite"
)

// ErrStorageDisabled 配置中关闭了持久化存储（database.type: none）
var ErrStorageDisabled = errors.New("持久化存储已禁用")

// DatabaseFactory 数据库工厂接口（内部使用）
type DatabaseFactory interface {
	// DB 返回已配置好的数据库连接
	DB() *sqlx.DB
	// Dialect 返回对应的SQL方言
	Dialect() storage.Dialect
	// Close 关闭数据库连接
	Close() error
}

// NewDatabaseFactory 创建数据库工厂（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres/none）
// dsn: 数据库连接字符串
func NewDatabaseFactory(dbType, dsn string) (DatabaseFactory, error) {
	switch dbType {
	case "sqlite":
		db, err := pkgsqlite.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("create sqlite database failed: %w", err)
		}
		return &sqlFactory{db: db, dialect: pkgsqlite.NewSQLiteDialect()}, nil
	case "mysql":
		db, err := mysql.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("create mysql database failed: %w", err)
		}
		return &sqlFactory{db: db, dialect: mysql.NewMySQLDialect()}, nil
	case "postgres", "postgresql":
		db, err := postgres.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("create postgres database failed: %w", err)
		}
		return &sqlFactory{db: db, dialect: postgres.NewPostgresDialect()}, nil
	case "none":
		return nil, ErrStorageDisabled
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// sqlFactory 基于sqlx的数据库工厂（内部实现）
type sqlFactory struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

func (f *sqlFactory) DB() *sqlx.DB {
	return f.db
}

func (f *sqlFactory) Dialect() storage.Dialect {
	return f.dialect
}

func (f *sqlFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
