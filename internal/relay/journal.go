package relay

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/payrelay/pkg/event"
	"github.com/nao1215/payrelay/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// ジャーナル一覧取得の件数制限。
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// timeLayout はcreated_atの保存形式。辞書順が時系列順になるよう桁数を固定する。
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ListFilter はジャーナル一覧取得の条件。
type ListFilter struct {
	// MerchantID が空でない場合、その加盟店のイベントのみ返す。
	MerchantID string
	// EventType が空でない場合、その種類のイベントのみ返す。
	EventType event.Type
	// Limit は最大件数。0以下の場合はデフォルト値を使う。
	Limit int
}

// normalizedLimit は件数制限を許容範囲に丸める。
func (f ListFilter) normalizedLimit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

// Journal は中継結果を記録するストア。
type Journal interface {
	// Record はイベントを1件記録する。
	Record(ctx context.Context, ev *event.Event) error
	// List は新しい順にイベントを返す。
	List(ctx context.Context, filter ListFilter) ([]event.Event, error)
	// Close はストアを閉じる。
	Close() error
}

// SQLiteJournal はSQLiteに中継イベントを記録するJournal実装。
type SQLiteJournal struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLiteJournal はpathのSQLiteデータベースを開き、マイグレーションを適用する。
// pathに ":memory:" を指定するとインメモリデータベースになる。
func OpenSQLiteJournal(ctx context.Context, path string) (*SQLiteJournal, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		// インメモリDBは接続ごとに別物になるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Record はイベントを1件記録する。
func (j *SQLiteJournal) Record(ctx context.Context, ev *event.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO relay_events (id, request_id, merchant_id, gateway_name, event_type, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.RequestID, ev.MerchantID, ev.GatewayName, string(ev.EventType), string(ev.Data),
		ev.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("イベントの記録に失敗: %w", err)
	}
	return nil
}

// List は条件に一致するイベントを新しい順に返す。
func (j *SQLiteJournal) List(ctx context.Context, filter ListFilter) ([]event.Event, error) {
	var (
		conds []string
		args  []any
	)
	if filter.MerchantID != "" {
		conds = append(conds, "merchant_id = ?")
		args = append(args, filter.MerchantID)
	}
	if filter.EventType != "" {
		conds = append(conds, "event_type = ?")
		args = append(args, string(filter.EventType))
	}

	query := "SELECT id, request_id, merchant_id, gateway_name, event_type, data, created_at FROM relay_events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, filter.normalizedLimit())

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]event.Event, 0)
	for rows.Next() {
		var (
			ev        event.Event
			eventType string
			data      string
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.MerchantID, &ev.GatewayName, &eventType, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗: %w", err)
		}
		ev.EventType = event.Type(eventType)
		ev.Data = []byte(data)
		ev.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("作成日時の解析に失敗: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	return events, nil
}

// Close はデータベース接続を閉じる。
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
