package encodingsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	encodingdto "github.com/armadillica/pillar-sub000/internal/api/encoding/dto"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/armadillica/pillar-sub000/config"
)

func TestMatchVariation(t *testing.T) {
	file := &filemodels.File{Variations: []filemodels.FileVariation{
		{Format: "webm", Size: "1080p"},
		{Format: "mp4", Size: "720p"},
		{Format: "mp4", Size: "1080p"},
	}}

	// Đúng format và size
	v := matchVariation(file, &encodingdto.ZencoderOutput{Format: "mp4", Width: 1920, Height: 1080})
	require.NotNil(t, v)
	assert.Equal(t, "1080p", v.Size)
	assert.Equal(t, "mp4", v.Format)

	// Size không khớp thì lấy variation cùng format đầu tiên
	v = matchVariation(file, &encodingdto.ZencoderOutput{Format: "mp4", Width: 640, Height: 480})
	require.NotNil(t, v)
	assert.Equal(t, "720p", v.Size)

	// Format lạ thì không khớp gì cả
	assert.Nil(t, matchVariation(file, &encodingdto.ZencoderOutput{Format: "ogv", Width: 1920, Height: 1080}))
}

func TestJobCreate(t *testing.T) {
	var gotAuth string
	var gotReq zencoderJobRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Zencoder-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 5678}`))
	}))
	defer server.Close()

	old := global.ServerConfig
	global.ServerConfig = &config.Configuration{
		ZencoderAPIKey:              "api-key-test",
		ZencoderNotificationsURL:    "https://cloud.example.com/api/v1/encoding/zencoder/notifications",
		ZencoderNotificationsSecret: "bí-mật",
	}
	t.Cleanup(func() { global.ServerConfig = old })

	svc := &EncodingService{
		apiBase:    server.URL,
		httpClient: &http.Client{Timeout: time.Second},
	}

	projectID := primitive.NewObjectID()
	file := &filemodels.File{
		ID:       primitive.NewObjectID(),
		Project:  projectID,
		Backend:  "gcs",
		FilePath: "ab/abcdef.mp4",
		Variations: []filemodels.FileVariation{{
			Size: "1080p", Format: "mp4", FilePath: "ab/abcdef-mp4.mp4", Width: 1920, Height: 1080,
		}},
	}

	jobID, backend, err := svc.JobCreate(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "5678", jobID)
	assert.Equal(t, BackendZencoder, backend)

	assert.Equal(t, "api-key-test", gotAuth)
	assert.Equal(t, "gcs://"+projectID.Hex()+"/ab/abcdef.mp4", gotReq.Input)
	require.Len(t, gotReq.Outputs, 1)
	out := gotReq.Outputs[0]
	assert.Equal(t, "gcs://"+projectID.Hex()+"/ab/abcdef-mp4.mp4", out.URL)
	assert.Equal(t, "mp4", out.Format)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, "bí-mật", out.Notifications[0].Headers[notificationSecretHeader])
}

func TestJobCreateThieuCauHinh(t *testing.T) {
	old := global.ServerConfig
	global.ServerConfig = &config.Configuration{}
	t.Cleanup(func() { global.ServerConfig = old })

	svc := NewEncodingService(nil)
	_, _, err := svc.JobCreate(context.Background(), &filemodels.File{Backend: "gcs"})
	assert.Error(t, err, "thiếu API key phải trả lỗi")

	global.ServerConfig = &config.Configuration{ZencoderAPIKey: "key"}
	_, _, err = svc.JobCreate(context.Background(), &filemodels.File{Backend: "local"})
	assert.Error(t, err, "backend local không gửi được lên Zencoder")
}
