package controller

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/config"
	"nexus/utils"
)

func TestDiscardLogsOrphanedFile(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tc := &TrackingController{
		Files:  utils.NewCloudinaryUploader(config.CloudinaryConfig{CloudName: "demo", UploadPreset: "nexuss"}),
		Logger: logrus.NewEntry(logger),
	}

	tc.discard(&utils.UploadedFile{URL: "https://res.test/raw/upload/v1/e.csv", PublicID: "nexus/e"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Orphaned evidence file left on the file host", entry.Message)
	assert.Equal(t, "nexus/e", entry.Data["public_id"])
	assert.Equal(t, "https://res.test/raw/upload/v1/e.csv", entry.Data["url"])
	err, _ := entry.Data[logrus.ErrorKey].(error)
	assert.ErrorIs(t, err, utils.ErrDeleteUnsupported)
}
