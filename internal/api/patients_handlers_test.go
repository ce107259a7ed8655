package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/cache"
	"github.com/prontuario/patients/internal/patient"
	"github.com/prontuario/patients/internal/repo"
	"github.com/prontuario/patients/internal/repo/repotest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Matches(h, p string) bool      { return h == "h:"+p }

type testEnv struct {
	store  *repotest.Store
	cache  *cache.TTL
	router http.Handler
	token  string
	logs   *bytes.Buffer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repotest.New()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	logs := &bytes.Buffer{}
	h := NewHandler(patient.NewService(store, plainHasher{}, nil), c, func(ctx context.Context) error { return nil }, zerolog.New(logs))
	tok, err := auth.BuildJWT(testSecret, uuid.NewString(), auth.RoleProfessional, time.Hour)
	require.NoError(t, err)
	return &testEnv{
		store:  store,
		cache:  c,
		router: NewRouter(h, RouterOptions{JWTSecret: testSecret, CORSOrigins: []string{"*"}, Timeout: 5 * time.Second}),
		token:  tok,
		logs:   logs,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"cpf":      "529.982.247-25",
		"nome":     "Maria da Silva",
		"email":    "maria@example.com",
		"senha":    "segredo123",
		"temPlano": true,
		"planos":   []map[string]string{{"operadora": "unimed", "numeroCarteira": "123"}},
		"endereco": map[string]string{"cep": "11111-111", "rua": "Rua A", "estado": "SP", "numero": "1", "complemento": ""},
	}
}

func TestHealthAndReady(t *testing.T) {
	e := newEnv(t)
	for _, p := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestReady_DatabaseDown(t *testing.T) {
	h := NewHandler(nil, nil, func(ctx context.Context) error { return errors.New("refused") }, zerolog.Nop())
	rec := httptest.NewRecorder()
	NewRouter(h, RouterOptions{JWTSecret: testSecret}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPatients_RequireToken(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patients", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePatient_Accepted(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/patients", createBody())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var out map[string]interface{}
	decode(t, rec, &out)
	assert.Equal(t, "Maria da Silva", out["nome"])
	assert.NotContains(t, out, "senha")
	assert.NotContains(t, out, "cpf")
	addr := out["endereco"].(map[string]interface{})
	assert.Equal(t, "11111111", addr["cep"])
	plans := out["planos"].([]interface{})
	assert.Equal(t, "UNIMED", plans[0].(map[string]interface{})["operadora"])

	require.Len(t, e.store.Audits, 1)
	assert.Equal(t, auth.RoleProfessional, e.store.Audits[0].ActorType)
	assert.NotNil(t, e.store.Audits[0].RequestID)
}

func TestCreatePatient_Errors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/patients", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/patients", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := createBody()
	body["email"] = "x"
	rec = e.do(t, http.MethodPost, "/api/patients", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var ve struct {
		Error   string               `json:"error"`
		Details []patient.FieldError `json:"details"`
	}
	decode(t, rec, &ve)
	assert.Equal(t, "validation failed", ve.Error)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "email", ve.Details[0].Field)

	body = createBody()
	body["cpf"] = "529.982.247-26"
	rec = e.do(t, http.MethodPost, "/api/patients", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid cpf"}`, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/patients", createBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/patients", createBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, e.store.Patients, 1)

	e.store.CreatePatientFunc = func(ctx context.Context, p *repo.Patient) error {
		return errors.New("pq: connection refused on 10.0.0.5")
	}
	body = createBody()
	body["cpf"] = "111.444.777-35"
	rec = e.do(t, http.MethodPost, "/api/patients", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
	assert.Contains(t, e.logs.String(), "connection refused", "raw error is logged, not returned")
}

func TestGetPatient(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Ana", PasswordHash: "secret-hash", CPFHash: "abc"})

	rec := e.do(t, http.MethodGet, "/api/patients/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.Equal(t, 1, e.store.Calls["PatientByID"])

	// segunda leitura vem do cache
	rec = e.do(t, http.MethodGet, "/api/patients/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, e.store.Calls["PatientByID"])

	rec = e.do(t, http.MethodGet, "/api/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPatients(t *testing.T) {
	e := newEnv(t)
	e.store.Put(repo.Patient{FullName: "Ana", PasswordHash: "x"})
	e.store.Put(repo.Patient{FullName: "Bia", PasswordHash: "y"})

	rec := e.do(t, http.MethodGet, "/api/patients?limit=500&offset=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Patients []patient.PublicView `json:"patients"`
		Limit    int                  `json:"limit"`
		Offset   int                  `json:"offset"`
		Total    int64                `json:"total"`
	}
	decode(t, rec, &out)
	assert.Len(t, out.Patients, 2)
	assert.Equal(t, 100, out.Limit)
	assert.EqualValues(t, 2, out.Total)

	rec = e.do(t, http.MethodGet, "/api/patients?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePatient_InvalidatesCache(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/patients", createBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created patient.PublicView
	decode(t, rec, &created)
	path := "/api/patients/" + created.ID

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path, nil).Code)
	assert.NotNil(t, e.cache.Get(patientCacheKey(created.ID)))

	rec = e.do(t, http.MethodPut, path, map[string]interface{}{
		"cpf": "52998224725", "nome": "Maria Souza", "email": "maria@example.com", "estaAtivo": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, e.cache.Get(patientCacheKey(created.ID)))

	var got patient.PublicView
	decode(t, e.do(t, http.MethodGet, path, nil), &got)
	assert.Equal(t, "Maria Souza", got.Name)
	assert.False(t, got.Active)
	assert.False(t, got.HasPlan)

	rec = e.do(t, http.MethodPut, "/api/patients/"+uuid.NewString(), map[string]interface{}{
		"cpf": "52998224725", "nome": "X Y", "email": "x@example.com", "estaAtivo": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePatientAddress(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Ana"})
	path := "/api/patients/" + p.ID.String() + "/address"

	rec := e.do(t, http.MethodPut, path, map[string]string{"cep": "11111111", "rua": "Rua A", "estado": "SP"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPut, path, map[string]string{"cep": "22222222"})
	require.Equal(t, http.StatusOK, rec.Code)
	var v patient.PublicView
	decode(t, rec, &v)
	assert.Equal(t, "22222222", v.Address.CEP)
	assert.Empty(t, v.Address.Street)
	assert.Len(t, e.store.Addresses, 1)

	rec = e.do(t, http.MethodPut, "/api/patients/"+uuid.NewString()+"/address", map[string]string{"cep": "11111111"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivatePatient(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Ana", Active: true})
	path := "/api/patients/" + p.ID.String()

	rec := e.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Paciente desativado."}`, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, path, nil).Code)
}

// Uma desativação que termina entre a leitura do banco e o preenchimento do cache
// não pode deixar a versão antiga servida depois.
func TestGetPatient_DeactivateDuringRead(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Maria da Silva", Active: true})
	path := "/api/patients/" + p.ID.String()

	interleaved := false
	e.store.PatientByIDFunc = func(ctx context.Context, id uuid.UUID) (*repo.Patient, error) {
		loaded, err := e.store.LoadPatient(id)
		if !interleaved {
			interleaved = true
			require.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, path, nil).Code)
		}
		return loaded, err
	}

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path, nil).Code)
	assert.Nil(t, e.cache.Get(patientCacheKey(p.ID.String())))
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, nil).Code)
}

func TestGetPatient_UpdateDuringRead(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/patients", createBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created patient.PublicView
	decode(t, rec, &created)
	path := "/api/patients/" + created.ID

	interleaved := false
	e.store.PatientByIDFunc = func(ctx context.Context, id uuid.UUID) (*repo.Patient, error) {
		loaded, err := e.store.LoadPatient(id)
		if !interleaved {
			interleaved = true
			rec := e.do(t, http.MethodPut, path, map[string]interface{}{
				"cpf": "52998224725", "nome": "Maria Souza", "email": "maria@example.com", "estaAtivo": true,
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
		return loaded, err
	}

	var stale patient.PublicView
	decode(t, e.do(t, http.MethodGet, path, nil), &stale)
	assert.Equal(t, "Maria da Silva", stale.Name)

	var got patient.PublicView
	decode(t, e.do(t, http.MethodGet, path, nil), &got)
	assert.Equal(t, "Maria Souza", got.Name)
}

func TestDeactivatePatient_ReceptionForbidden(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Ana", Active: true})
	tok, err := auth.BuildJWT(testSecret, "r1", auth.RoleReception, time.Hour)
	require.NoError(t, err)
	e.token = tok
	rec := e.do(t, http.MethodDelete, "/api/patients/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, e.store.Patients[p.ID].Active)
}

func TestListPatientAppointments(t *testing.T) {
	e := newEnv(t)
	p := e.store.Put(repo.Patient{FullName: "Ana"})
	e.store.Appointments[p.ID] = []repo.Appointment{{ID: uuid.New(), PatientID: p.ID, Date: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), Reminder: true}}

	rec := e.do(t, http.MethodGet, "/api/patients/"+p.ID.String()+"/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Appointments []map[string]interface{} `json:"appointments"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Appointments, 1)
	assert.Equal(t, true, out.Appointments[0]["lembrete"])
	assert.Equal(t, "2026-05-01T09:00:00Z", out.Appointments[0]["data"])

	rec = e.do(t, http.MethodGet, "/api/patients/"+uuid.NewString()+"/appointments", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchPatients(t *testing.T) {
	e := newEnv(t)
	e.store.Put(repo.Patient{FullName: "Ana Maria", PasswordHash: "x"})

	rec := e.do(t, http.MethodGet, "/api/patients/search?userInput=Ana+Maria", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Patients []patient.PublicView `json:"patients"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Patients, 1)

	rec = e.do(t, http.MethodGet, "/api/patients/search?userInput=Beatriz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/patients/search?userInput=%3Cscript%3E", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var bad struct {
		Errors []patient.FieldError `json:"errors"`
	}
	decode(t, rec, &bad)
	require.Len(t, bad.Errors, 2)
	assert.Equal(t, "userInput", bad.Errors[0].Field)
	assert.NotContains(t, rec.Body.String(), "<script>")

	rec = e.do(t, http.MethodGet, "/api/patients/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, e.store.Calls["PatientsByName"])
}
