package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/photoshare/internal/config"
	"github.com/your-org/photoshare/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users / corpus ---

func (s *PostgresStore) CreateUser(ctx context.Context, username, displayName string, signature []float32) (*models.User, error) {
	u := &models.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: displayName,
		Signature:   signature,
	}
	vec := pgvector.NewVector(signature)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, display_name, signature) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Username, u.DisplayName, vec,
	).Scan(&u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, display_name, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, display_name, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, display_name, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListCorpus returns the full matching corpus: every registered identity with
// its face signature.
func (s *PostgresStore) ListCorpus(ctx context.Context) ([]models.CorpusEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username, signature FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	defer rows.Close()

	var corpus []models.CorpusEntry
	for rows.Next() {
		var entry models.CorpusEntry
		var vec pgvector.Vector
		if err := rows.Scan(&entry.UserID, &entry.Username, &vec); err != nil {
			return nil, fmt.Errorf("scan corpus entry: %w", err)
		}
		entry.Signature = vec.Slice()
		corpus = append(corpus, entry)
	}
	return corpus, rows.Err()
}

// --- Groups ---

func (s *PostgresStore) CreateGroup(ctx context.Context, name string, creatorID uuid.UUID) (*models.Group, error) {
	g := &models.Group{
		ID:        uuid.New(),
		Name:      name,
		CreatorID: creatorID,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO groups (id, name, creator_id) VALUES ($1, $2, $3) RETURNING created_at`,
		g.ID, g.Name, g.CreatorID,
	).Scan(&g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// AddMembers grows the group's member set. The membership relation doubles as
// each user's group set; ON CONFLICT DO NOTHING makes replays no-ops.
func (s *PostgresStore) AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range userIDs {
		batch.Queue(
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			groupID, id)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range userIDs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("add group member: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, creator_id, created_at FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM group_members WHERE group_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		g.MemberIDs = append(g.MemberIDs, uid)
	}
	return g, rows.Err()
}

func (s *PostgresStore) IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.creator_id, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Photos ---

// CreatePhoto inserts a photo and its face associations. Returns false when
// the group already holds a photo with the same content fingerprint, leaving
// existing rows untouched.
func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO photos (id, group_id, uploader_id, fingerprint, content_type, captured_at, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (group_id, fingerprint) DO NOTHING`,
		p.ID, p.GroupID, p.UploaderID, p.Fingerprint, p.ContentType, p.CapturedAt, p.UploadedAt)
	if err != nil {
		return false, fmt.Errorf("insert photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, fm := range p.Faces {
		_, err := tx.Exec(ctx,
			`INSERT INTO photo_faces (photo_id, user_id, confidence, x, y, w, h)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT DO NOTHING`,
			p.ID, fm.UserID, fm.Confidence, fm.Region.X, fm.Region.Y, fm.Region.W, fm.Region.H)
		if err != nil {
			return false, fmt.Errorf("insert photo face: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit photo: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	p := &models.Photo{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, uploader_id, fingerprint, content_type, captured_at, uploaded_at
		 FROM photos WHERE id = $1`, id,
	).Scan(&p.ID, &p.GroupID, &p.UploaderID, &p.Fingerprint, &p.ContentType, &p.CapturedAt, &p.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}

	faces, err := s.photoFaces(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Faces = faces
	return p, nil
}

// ListGroupPhotos returns all photos of a group, newest capture first, with
// their face associations attached.
func (s *PostgresStore) ListGroupPhotos(ctx context.Context, groupID uuid.UUID) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, group_id, uploader_id, fingerprint, content_type, captured_at, uploaded_at
		 FROM photos WHERE group_id = $1 ORDER BY captured_at DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.GroupID, &p.UploaderID, &p.Fingerprint, &p.ContentType, &p.CapturedAt, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range photos {
		faces, err := s.photoFaces(ctx, photos[i].ID)
		if err != nil {
			return nil, err
		}
		photos[i].Faces = faces
	}
	return photos, nil
}

func (s *PostgresStore) photoFaces(ctx context.Context, photoID uuid.UUID) ([]models.FaceMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT f.user_id, u.username, f.confidence, f.x, f.y, f.w, f.h
		 FROM photo_faces f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.photo_id = $1`, photoID)
	if err != nil {
		return nil, fmt.Errorf("list photo faces: %w", err)
	}
	defer rows.Close()

	var faces []models.FaceMatch
	for rows.Next() {
		var fm models.FaceMatch
		if err := rows.Scan(&fm.UserID, &fm.Username, &fm.Confidence,
			&fm.Region.X, &fm.Region.Y, &fm.Region.W, &fm.Region.H); err != nil {
			return nil, fmt.Errorf("scan photo face: %w", err)
		}
		faces = append(faces, fm)
	}
	return faces, rows.Err()
}

// --- Shared photos ---

func (s *PostgresStore) CreateShare(ctx context.Context, sp *models.SharedPhoto) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO shared_photos (id, sender_id, content_type, shared_at) VALUES ($1, $2, $3, $4)`,
		sp.ID, sp.SenderID, sp.ContentType, sp.SharedAt)
	if err != nil {
		return fmt.Errorf("insert shared photo: %w", err)
	}

	for _, rid := range sp.RecipientIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO shared_recipients (photo_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			sp.ID, rid)
		if err != nil {
			return fmt.Errorf("insert share recipient: %w", err)
		}
	}
	for _, fm := range sp.Faces {
		_, err := tx.Exec(ctx,
			`INSERT INTO shared_faces (photo_id, user_id, confidence, x, y, w, h)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT DO NOTHING`,
			sp.ID, fm.UserID, fm.Confidence, fm.Region.X, fm.Region.Y, fm.Region.W, fm.Region.H)
		if err != nil {
			return fmt.Errorf("insert share face: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit share: %w", err)
	}
	return nil
}

// MarkViewed records a view for a recipient. Non-recipients and repeat views
// fall through without effect.
func (s *PostgresStore) MarkViewed(ctx context.Context, photoID, viewerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shared_views (photo_id, user_id, viewed_at)
		 SELECT $1, $2, $3
		 WHERE EXISTS (SELECT 1 FROM shared_recipients WHERE photo_id = $1 AND user_id = $2)
		 ON CONFLICT DO NOTHING`,
		photoID, viewerID, time.Now())
	if err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetShare(ctx context.Context, id uuid.UUID) (*models.SharedPhoto, error) {
	sp := &models.SharedPhoto{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, sender_id, content_type, shared_at FROM shared_photos WHERE id = $1`, id,
	).Scan(&sp.ID, &sp.SenderID, &sp.ContentType, &sp.SharedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get shared photo: %w", err)
	}
	if err := s.fillShareSets(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *PostgresStore) ListSharesReceived(ctx context.Context, userID uuid.UUID) ([]models.SharedPhoto, error) {
	return s.listShares(ctx,
		`SELECT p.id, p.sender_id, p.content_type, p.shared_at
		 FROM shared_photos p
		 JOIN shared_recipients r ON r.photo_id = p.id
		 WHERE r.user_id = $1
		 ORDER BY p.shared_at DESC`, userID)
}

func (s *PostgresStore) ListSharesSent(ctx context.Context, userID uuid.UUID) ([]models.SharedPhoto, error) {
	return s.listShares(ctx,
		`SELECT id, sender_id, content_type, shared_at
		 FROM shared_photos
		 WHERE sender_id = $1
		 ORDER BY shared_at DESC`, userID)
}

func (s *PostgresStore) listShares(ctx context.Context, query string, userID uuid.UUID) ([]models.SharedPhoto, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared photos: %w", err)
	}
	defer rows.Close()

	var shares []models.SharedPhoto
	for rows.Next() {
		var sp models.SharedPhoto
		if err := rows.Scan(&sp.ID, &sp.SenderID, &sp.ContentType, &sp.SharedAt); err != nil {
			return nil, fmt.Errorf("scan shared photo: %w", err)
		}
		shares = append(shares, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range shares {
		if err := s.fillShareSets(ctx, &shares[i]); err != nil {
			return nil, err
		}
	}
	return shares, nil
}

func (s *PostgresStore) fillShareSets(ctx context.Context, sp *models.SharedPhoto) error {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM shared_recipients WHERE photo_id = $1`, sp.ID)
	if err != nil {
		return fmt.Errorf("list share recipients: %w", err)
	}
	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return fmt.Errorf("scan share recipient: %w", err)
		}
		sp.RecipientIDs = append(sp.RecipientIDs, uid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx,
		`SELECT f.user_id, u.username, f.confidence, f.x, f.y, f.w, f.h
		 FROM shared_faces f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.photo_id = $1`, sp.ID)
	if err != nil {
		return fmt.Errorf("list share faces: %w", err)
	}
	for rows.Next() {
		var fm models.FaceMatch
		if err := rows.Scan(&fm.UserID, &fm.Username, &fm.Confidence,
			&fm.Region.X, &fm.Region.Y, &fm.Region.W, &fm.Region.H); err != nil {
			rows.Close()
			return fmt.Errorf("scan share face: %w", err)
		}
		sp.Faces = append(sp.Faces, fm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx,
		`SELECT user_id, viewed_at FROM shared_views WHERE photo_id = $1`, sp.ID)
	if err != nil {
		return fmt.Errorf("list share views: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v models.View
		if err := rows.Scan(&v.UserID, &v.ViewedAt); err != nil {
			return fmt.Errorf("scan share view: %w", err)
		}
		sp.Views = append(sp.Views, v)
	}
	return rows.Err()
}
