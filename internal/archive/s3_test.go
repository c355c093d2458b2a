package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/photobook/internal/domain/project"
	"github.com/rpggio/photobook/internal/domain/version"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func testRecord() *version.Record {
	return &version.Record{
		ID:            "rec-1",
		TenantID:      "tenant1",
		ProjectID:     "proj1",
		VersionNumber: 12,
		Snapshot: version.Snapshot{
			Project: project.Project{ID: "proj1", Name: "Wedding", Status: project.StatusLocked},
			Pages:   []project.Page{{ID: "pg1", ProjectID: "proj1", PageNumber: 1, PageType: project.PageRegular, SpreadID: "s1"}},
		},
		IsProduction: true,
	}
}

func TestObjectKey(t *testing.T) {
	rec := testRecord()
	require.Equal(t, "tenant1/proj1/v000012-rec-1.json", ObjectKey("", rec))
	require.Equal(t, "snapshots/tenant1/proj1/v000012-rec-1.json", ObjectKey("snapshots", rec))
}

func TestArchiveSnapshot(t *testing.T) {
	client := &fakePutter{}
	archiver := newArchiver(client, "books", "prod", nil)
	rec := testRecord()

	require.NoError(t, archiver.ArchiveSnapshot(context.Background(), rec))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	require.Equal(t, "books", aws.ToString(in.Bucket))
	require.Equal(t, "prod/tenant1/proj1/v000012-rec-1.json", aws.ToString(in.Key))
	require.Equal(t, "application/json", aws.ToString(in.ContentType))
	require.Equal(t, "12", in.Metadata["version-number"])

	var got version.Record
	require.NoError(t, json.Unmarshal(client.bodies[0], &got))
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, "Wedding", got.Snapshot.Project.Name)
	require.Len(t, got.Snapshot.Pages, 1)
}

func TestArchiveSnapshot_UploadError(t *testing.T) {
	archiver := newArchiver(&fakePutter{err: errors.New("access denied")}, "books", "", nil)
	err := archiver.ArchiveSnapshot(context.Background(), testRecord())
	require.ErrorContains(t, err, "access denied")
}

func TestNewS3Archiver_RequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Options{Region: "us-east-1"}, nil)
	require.Error(t, err)
}
