package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"social/internal/config"
	"social/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_SQLiteSingleConnection(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{DBDriver: "sqlite", DBMaxOpenConns: 10}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "sqlite", DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "postgres", DBHost: "localhost", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev runs both", config.Config{Env: "development", DBDriver: "postgres"}, true, true, false},
		{"hybrid prod runs sql only", config.Config{Env: "production", DBDriver: "postgres", DBSchemaMode: "hybrid"}, true, false, false},
		{"sql mode", config.Config{Env: "development", DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"auto mode dev", config.Config{Env: "development", DBDriver: "postgres", DBSchemaMode: "auto"}, false, true, false},
		{"auto mode prod refused", config.Config{Env: "production", DBDriver: "postgres", DBSchemaMode: "auto"}, false, false, true},
		{"auto mode prod allowed", config.Config{Env: "production", DBDriver: "postgres", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"sqlite always auto", config.Config{Env: "production", DBDriver: "sqlite", DBSchemaMode: "sql"}, false, true, false},
		{"unknown mode", config.Config{DBDriver: "sqlite", DBSchemaMode: "magic"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLiteCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	cfg := &config.Config{Env: "test", DBDriver: "sqlite"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	for _, table := range []string{"users", "profiles", "tags", "posts", "post_tags", "comments", "likes", "chats", "chat_participants", "messages", "media"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Equal(t, "sqlite", status.Driver)
}

func TestPersistentModels_IncludesDomainTables(t *testing.T) {
	var hasMedia, hasChat bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Media:
			hasMedia = true
		case *models.Chat:
			hasChat = true
		}
	}
	assert.True(t, hasMedia)
	assert.True(t, hasChat)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "init_schema", all[0].Name)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS posts")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS posts")
	assert.Equal(t, "000001_init_schema", all[0].String())

	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("up2")},
		"m/000002_second.down.sql": {Data: []byte("down2")},
		"m/000001_first.up.sql":    {Data: []byte("up1")},
		"m/000001_first.down.sql":  {Data: []byte("down1")},
		"m/README.md":              {Data: []byte("ignored")},
	}
	set, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "000001_first", set[0].String())
	assert.Equal(t, "down2", set[1].DownScript)

	tests := map[string]fstest.MapFS{
		"missing down": {"m/000001_first.up.sql": {Data: []byte("up")}},
		"bad version":  {"m/abc_first.up.sql": {Data: []byte("up")}, "m/abc_first.down.sql": {Data: []byte("down")}},
		"no name":      {"m/000001.up.sql": {Data: []byte("up")}, "m/000001.down.sql": {Data: []byte("down")}},
		"duplicate": {
			"m/000001_a.up.sql": {Data: []byte("up")}, "m/000001_a.down.sql": {Data: []byte("down")},
			"m/1_b.up.sql": {Data: []byte("up")}, "m/1_b.down.sql": {Data: []byte("down")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadMigrations(fsys, "m")
			assert.Error(t, err)
		})
	}
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestLatestApplied(t *testing.T) {
	assert.Equal(t, 0, LatestApplied(nil))
	assert.Equal(t, 3, LatestApplied([]int{1, 3, 2}))
}

func notesMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_notes", UpScript: "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);", DownScript: "DROP TABLE notes;"},
		{Version: 2, Name: "index_notes", UpScript: "CREATE INDEX idx_notes_body ON notes (body);", DownScript: "DROP INDEX idx_notes_body;"},
	}
}

func fileDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrateUpAndDown(t *testing.T) {
	db := fileDB(t)
	ctx := context.Background()
	set := notesMigrations()

	applied, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied, "fresh database has no ledger")

	require.NoError(t, migrateUp(ctx, db, set))
	require.NoError(t, migrateUp(ctx, db, set), "second run applies nothing")
	assert.True(t, db.Migrator().HasTable("notes"))

	applied, err = AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.Empty(t, pendingMigrations(applied, set))

	err = migrateDown(ctx, db, set, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the latest applied")
	assert.Error(t, migrateDown(ctx, db, set, 9))

	require.NoError(t, migrateDown(ctx, db, set, 2))
	applied, err = AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)
	assert.Error(t, migrateDown(ctx, db, set, 2), "already rolled back")

	require.NoError(t, migrateDown(ctx, db, set, 1))
	assert.False(t, db.Migrator().HasTable("notes"))
}

func TestMigrateUpFailureLeavesNoRecord(t *testing.T) {
	db := fileDB(t)
	ctx := context.Background()
	set := append(notesMigrations(), Migration{Version: 3, Name: "broken", UpScript: "CREATE TABLE (", DownScript: ""})

	err := migrateUp(ctx, db, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003_broken")

	applied, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)

	err = migrateUp(ctx, db, set[:1])
	require.Error(t, err, "ledger holds a version this set does not ship")
	assert.Contains(t, err.Error(), "000002")
}
