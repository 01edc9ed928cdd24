package ftp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bracketed tag",
			in:   "[ConnectionException] - Failed to connect to remote server.",
			want: "Failed to connect to remote server.",
		},
		{
			name: "no tag",
			in:   "Disk full",
			want: "Disk full",
		},
		{
			name: "bare word tag",
			in:   "FtpCommandException - Unable to create directory.",
			want: "Unable to create directory.",
		},
		{
			name: "every tag is removed",
			in:   "[A] - [B] - done",
			want: "done",
		},
		{
			name: "dash without surrounding spaces",
			in:   "file-name.txt not found",
			want: "file-name.txt not found",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeErrorMatchesNormalize(t *testing.T) {
	raw := "[ConnectionException] - Failed to connect to remote server."
	assert.Equal(t, Normalize(raw), NormalizeError(errors.New(raw)))
	assert.Equal(t, "", NormalizeError(nil))
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("[FtpException] - 550 Permission denied")

	err := adapterError("remove", cause)
	var adapterErr *AdapterError
	assert.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "550 Permission denied", err.Error())
	assert.Equal(t, "remove", adapterErr.Op)
	assert.ErrorIs(t, err, cause)

	err = connectionError("ftp.example.com:21", cause)
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, "550 Permission denied", err.Error())
	assert.Equal(t, "ftp.example.com:21", connErr.Addr)

	err = &TransferError{Path: "/x/report.pdf", Err: cause}
	assert.Equal(t, "Failed to download file /x/report.pdf.", err.Error())
	assert.ErrorIs(t, err, cause)

	err = editError("/a.txt", cause)
	assert.Equal(t, "Unable to edit file [/a.txt].", err.Error())
}
