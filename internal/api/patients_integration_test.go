//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/crypto"
	"github.com/prontuario/patients/internal/patient"
	"github.com/prontuario/patients/internal/repo"
	"github.com/prontuario/patients/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func integrationRouter(t *testing.T) (http.Handler, *gorm.DB, string) {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(ctx)
	if db == nil {
		t.Skip("DATABASE_URL not set for integration tests")
	}
	require.NoError(t, testutil.MustMigrate(ctx, db))
	require.NoError(t, testutil.Truncate(ctx, db))

	ring, err := crypto.NewKeyRing("v1:"+strings.Repeat("A", 43), "v1")
	require.NoError(t, err)
	store := repo.NewStore(db)
	svc := patient.NewService(store, auth.NewHasher(4), ring)
	ping := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	h := NewHandler(svc, nil, ping, zerolog.Nop())
	tok, err := auth.BuildJWT(testSecret, uuid.NewString(), auth.RoleProfessional, time.Hour)
	require.NoError(t, err)
	return NewRouter(h, RouterOptions{JWTSecret: testSecret, Timeout: 10 * time.Second}), db, "Bearer " + tok
}

func call(t *testing.T, h http.Handler, authz, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIntegration_PatientLifecycle(t *testing.T) {
	h, db, authz := integrationRouter(t)
	ctx := context.Background()

	rec := call(t, h, authz, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, authz, http.MethodPost, "/api/patients", createBody())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var created patient.PublicView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := uuid.MustParse(created.ID)

	var stored repo.Patient
	require.NoError(t, db.WithContext(ctx).First(&stored, "id = ?", id).Error)
	assert.NotEqual(t, "segredo123", stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "segredo123"))
	assert.NotEmpty(t, stored.CPFEncrypted)
	require.Len(t, stored.HealthPlans, 1)
	assert.Equal(t, "UNIMED", stored.HealthPlans[0].Provider)

	rec = call(t, h, authz, http.MethodPost, "/api/patients", createBody())
	assert.Equal(t, http.StatusConflict, rec.Code)

	// endereço existente é sobrescrito, sem nova linha
	rec = call(t, h, authz, http.MethodPut, "/api/patients/"+created.ID+"/address", map[string]string{"cep": "22222-222", "rua": "Rua B"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var addresses int64
	require.NoError(t, db.WithContext(ctx).Model(&repo.Address{}).Count(&addresses).Error)
	assert.EqualValues(t, 1, addresses)

	rec = call(t, h, authz, http.MethodGet, "/api/patients/search?userInput=Maria+da+Silva", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, authz, http.MethodGet, "/api/patients/search?userInput="+"%27%3B+DROP+TABLE+patients%3B+--", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	spec := repo.Specialist{ID: uuid.New(), FullName: "Dr. Paulo", Specialty: "Clínica"}
	require.NoError(t, db.WithContext(ctx).Create(&spec).Error)
	appt := repo.Appointment{PatientID: id, SpecialistID: &spec.ID, Date: time.Now().Add(48 * time.Hour).UTC(), Reminder: true, Reminders: pq.StringArray{"24h"}, Status: "AGENDADO"}
	require.NoError(t, db.WithContext(ctx).Omit("Specialist").Create(&appt).Error)
	rec = call(t, h, authz, http.MethodGet, "/api/patients/"+created.ID+"/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dr. Paulo")

	rec = call(t, h, authz, http.MethodPut, "/api/patients/"+created.ID, map[string]interface{}{
		"cpf": "52998224725", "nome": "Maria Souza", "email": "maria@example.com", "estaAtivo": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated repo.Patient
	require.NoError(t, db.WithContext(ctx).First(&updated, "id = ?", id).Error)
	assert.Equal(t, stored.PasswordHash, updated.PasswordHash)
	assert.Empty(t, updated.HealthPlans)
	assert.False(t, updated.HasHealthPlan)

	rec = call(t, h, authz, http.MethodDelete, "/api/patients/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var gone repo.Patient
	require.NoError(t, db.WithContext(ctx).Unscoped().First(&gone, "id = ?", id).Error)
	assert.False(t, gone.Active)
	assert.True(t, gone.DeletedAt.Valid)
	assert.Equal(t, http.StatusNotFound, call(t, h, authz, http.MethodGet, "/api/patients/"+created.ID, nil).Code)

	var audits int64
	require.NoError(t, db.WithContext(ctx).Model(&repo.AuditEvent{}).Where("resource_id = ?", id).Count(&audits).Error)
	assert.EqualValues(t, 4, audits)

	// CPF liberado após desativação
	rec = call(t, h, authz, http.MethodPost, "/api/patients", createBody())
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}
