package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rvm-status-backend/internal/model"
	"rvm-status-backend/internal/store"
)

func setupRVMRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.RVM{}, &model.PushSubscription{}))

	// Generous rate limit so tests never trip it; caching off so every
	// read hits the store.
	router := NewRouter(store.NewGormStore(db), nil, nil, RouterConfig{
		RateLimit: 1000,
		RateBurst: 1000,
	})
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeRVM(t *testing.T, w *httptest.ResponseRecorder) model.RVM {
	var rvm model.RVM
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rvm))
	return rvm
}

func TestCreateRVM(t *testing.T) {
	router, _ := setupRVMRouter(t)

	t.Run("defaults are applied", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/rvms", gin.H{"name": "Campus gate"})
		require.Equal(t, http.StatusCreated, w.Code)

		rvm := decodeRVM(t, w)
		assert.NotZero(t, rvm.ID)
		assert.Equal(t, "Campus gate", rvm.Name)
		assert.Equal(t, "Cairo", rvm.Location)
		assert.True(t, rvm.IsActive)
		assert.Nil(t, rvm.LastUsage)
	})

	t.Run("explicit fields are persisted", func(t *testing.T) {
		usage := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		w := doJSON(t, router, http.MethodPost, "/api/rvms", gin.H{
			"name":       "Mall entrance",
			"location":   "Alexandria",
			"is_active":  false,
			"last_usage": usage.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, w.Code)

		rvm := decodeRVM(t, w)
		assert.Equal(t, "Alexandria", rvm.Location)
		assert.False(t, rvm.IsActive)
		require.NotNil(t, rvm.LastUsage)
		assert.Equal(t, usage.Unix(), rvm.LastUsage.Unix())
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/rvms", gin.H{"location": "Giza"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Name")
	})
}

func TestGetRVM(t *testing.T) {
	router, db := setupRVMRouter(t)

	active := model.RVM{Name: "Visible", Location: "Cairo", IsActive: true}
	inactive := model.RVM{Name: "Hidden", Location: "Cairo", IsActive: false}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&inactive).Error)

	t.Run("active record", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/rvms/%d", active.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Visible", decodeRVM(t, w).Name)
	})

	t.Run("inactive record is invisible", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/rvms/%d", inactive.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/rvms/99999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/rvms/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateRVM(t *testing.T) {
	router, db := setupRVMRouter(t)

	usage := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	rvm := model.RVM{Name: "Original", Location: "Alexandria", IsActive: true, LastUsage: &usage}
	require.NoError(t, db.Create(&rvm).Error)
	path := fmt.Sprintf("/api/rvms/%d", rvm.ID)

	t.Run("patch touches only supplied fields", func(t *testing.T) {
		newUsage := time.Now().UTC().Truncate(time.Second)
		w := doJSON(t, router, http.MethodPatch, path, gin.H{
			"last_usage": newUsage.Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, w.Code)

		updated := decodeRVM(t, w)
		assert.Equal(t, "Original", updated.Name)
		assert.Equal(t, "Alexandria", updated.Location)
		require.NotNil(t, updated.LastUsage)
		assert.Equal(t, newUsage.Unix(), updated.LastUsage.Unix())
	})

	t.Run("put requires name", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, path, gin.H{"location": "Giza"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("put resets omitted fields to create defaults", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, path, gin.H{"name": "Replaced"})
		require.Equal(t, http.StatusOK, w.Code)

		updated := decodeRVM(t, w)
		assert.Equal(t, "Replaced", updated.Name)
		assert.Equal(t, "Cairo", updated.Location)
		assert.True(t, updated.IsActive)
		assert.Nil(t, updated.LastUsage)
	})

	t.Run("update of unknown id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/api/rvms/99999", gin.H{"name": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSoftDeleteMakesRecordUnreachable(t *testing.T) {
	router, db := setupRVMRouter(t)

	rvm := model.RVM{Name: "Doomed", Location: "Cairo", IsActive: true}
	require.NoError(t, db.Create(&rvm).Error)
	path := fmt.Sprintf("/api/rvms/%d", rvm.ID)

	w := doJSON(t, router, http.MethodPatch, path, gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeRVM(t, w).IsActive)

	// Once deactivated the record is terminal for this API: every verb 404s.
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPatch, path, gin.H{"is_active": true}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodDelete, path, nil).Code)

	// The row itself survives in storage.
	var count int64
	require.NoError(t, db.Model(&model.RVM{}).Where("id = ?", rvm.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteRVM(t *testing.T) {
	router, db := setupRVMRouter(t)

	rvm := model.RVM{Name: "Retired", Location: "Cairo", IsActive: true}
	require.NoError(t, db.Create(&rvm).Error)
	path := fmt.Sprintf("/api/rvms/%d", rvm.ID)

	assert.Equal(t, http.StatusNoContent, doJSON(t, router, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, path, nil).Code)

	// Hard delete removes the row, not just its visibility.
	var count int64
	require.NoError(t, db.Model(&model.RVM{}).Where("id = ?", rvm.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestListRVMs_InvalidRecentParam(t *testing.T) {
	router, _ := setupRVMRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/rvms?recent=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "recent")
}
