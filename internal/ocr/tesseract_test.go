package ocr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTesseractCLI_Recognize_BuildsArgs(t *testing.T) {
	runner := new(mockRunner)
	tmp := t.TempDir()
	eng := NewTesseractCLI(Config{PSM: 6, OEM: 1, TessdataDir: "/td", TempDir: tmp}, runner, nil)

	var imgPath string
	runner.On("Run", mock.Anything, "tesseract", mock.MatchedBy(func(args []string) bool {
		if len(args) < 4 {
			return false
		}
		imgPath = args[0]
		_, err := os.Stat(imgPath)
		return err == nil
	})).Return([]byte("০০০১. নাম: করিম"), nil, nil).Once()

	text, err := eng.Recognize(context.Background(), Image{Data: []byte("png"), DPI: 300}, "")
	require.NoError(t, err)
	assert.Equal(t, "০০০১. নাম: করিম", text)

	args := runner.Calls[0].Arguments.Get(2).([]string)
	assert.Equal(t, []string{"stdout", "-l", "ben", "--dpi", "300", "--psm", "6", "--oem", "1", "--tessdata-dir", "/td"}, args[1:])

	_, err = os.Stat(imgPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp image should be removed")
	runner.AssertExpectations(t)
}

func TestTesseractCLI_Recognize_EmptyImage(t *testing.T) {
	eng := NewTesseractCLI(Config{}, new(mockRunner), nil)
	_, err := eng.Recognize(context.Background(), Image{}, "ben")
	assert.Error(t, err)
}

func TestTesseractCLI_Recognize_MissingBinary(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, "tesseract", mock.Anything).
		Return(nil, nil, &CommandError{Cmd: "tesseract", Err: exec.ErrNotFound})

	eng := NewTesseractCLI(Config{TempDir: t.TempDir()}, runner, nil)
	_, err := eng.Recognize(context.Background(), Image{Data: []byte("png")}, "ben")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tesseract-cli", eng.Name())

	_, err = NewEngine(Config{Engine: "paddle"}, nil)
	assert.Error(t, err)
}

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()
	assert.Equal(t, "pdfinfo", c.Pdfinfo)
	assert.Equal(t, "pdftotext", c.Pdftotext)
	assert.Equal(t, "pdftoppm", c.Pdftoppm)
	assert.Equal(t, LangBengali, c.TesseractLang)
	assert.Equal(t, 300, c.DPI)
	assert.Equal(t, EngineCLI, c.Engine)

	c = Config{DPI: 200, TesseractLang: "ben+eng"}.WithDefaults()
	assert.Equal(t, 200, c.DPI)
	assert.Equal(t, "ben+eng", c.TesseractLang)
}
