package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chat-server/internal/models"
	"chat-server/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresStore{pool: pool}, nil
}

func (db *PostgresStore) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation

func (db *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{PasswordHash: passwordHash}
	err := db.pool.QueryRow(ctx, query, username, email, passwordHash).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Room Repository Implementation

func (db *PostgresStore) SaveRoom(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name, description, type, max_members, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.pool.Exec(ctx, query,
		room.ID, room.Name, room.Description, string(room.Type), room.MaxMembers, room.CreatedBy, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (db *PostgresStore) UpdateRoom(ctx context.Context, room *models.Room) error {
	query := `UPDATE rooms SET name = $2, description = $3, max_members = $4 WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, room.ID, room.Name, room.Description, room.MaxMembers)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, name, description, type, max_members, created_by, created_at
		FROM rooms
		ORDER BY created_at`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		var roomType string
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &roomType, &room.MaxMembers, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, err
		}
		room.Type = models.RoomType(roomType)
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// Message Repository Implementation

func (db *PostgresStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, room_id, sender_id, content, type, reply_to_id, edited, edited_at, deleted, deleted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)`

	_, err := db.pool.Exec(ctx, query,
		msg.ID, msg.RoomID, msg.SenderID, msg.Content, string(msg.Type), msg.ReplyToID,
		msg.Edited, msg.EditedAt, msg.Deleted, msg.DeletedAt, msg.CreatedAt,
	)
	return err
}

func (db *PostgresStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, room_id, sender_id, content, type, COALESCE(reply_to_id, ''), edited, edited_at, deleted, deleted_at, created_at
		FROM messages WHERE id = $1`

	msg := &models.Message{}
	var msgType string
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msgType, &msg.ReplyToID,
		&msg.Edited, &msg.EditedAt, &msg.Deleted, &msg.DeletedAt, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Type = models.MessageType(msgType)

	return msg, nil
}

func (db *PostgresStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		UPDATE messages
		SET content = $2, edited = $3, edited_at = $4, deleted = $5, deleted_at = $6
		WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, msg.ID, msg.Content, msg.Edited, msg.EditedAt, msg.Deleted, msg.DeletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresStore) RecentMessages(ctx context.Context, roomID string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, room_id, sender_id, content, type, COALESCE(reply_to_id, ''), edited, edited_at, deleted, deleted_at, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		var msgType string
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msgType, &msg.ReplyToID,
			&msg.Edited, &msg.EditedAt, &msg.Deleted, &msg.DeletedAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Type = models.MessageType(msgType)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to show oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// Notification Repository Implementation

func (db *PostgresStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (id, target_id, type, title, message, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = db.pool.Exec(ctx, query, n.ID, n.TargetID, n.Type, n.Title, n.Message, payload, n.Read, n.CreatedAt)
	return err
}

func (db *PostgresStore) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresStore) MarkAllNotificationsRead(ctx context.Context, targetID string) error {
	_, err := db.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE target_id = $1`, targetID)
	return err
}
