package api

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/quiz"
)

const (
	pdfMIME         = "application/pdf"
	octetStreamMIME = "application/octet-stream"
	filesPath       = "/api/files/"
	sniffLimit      = 3072
)

//go:embed ui/index.html
var indexHTML []byte

// generated files look like quiz-1234567.pdf
var generatedFileName = regexp.MustCompile(`^quiz-[0-9]+\.(pdf|xlsx)$`)

var (
	errNoFile     = errors.New("no file uploaded")
	errNotPDF     = errors.New("only PDF files are supported")
	errNotPDFMIME = errors.New("uploaded file is not a PDF")
)

type quizResponse struct {
	Quiz     string            `json:"quiz"`
	QuizHTML string            `json:"quiz_html"`
	PDFURL   *string           `json:"pdf_url"`
	Files    map[string]string `json:"files"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGenerateQuiz(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		rejectUpload(c, errNoFile)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		rejectUpload(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	if err := validateUpload(fileHeader, file); err != nil {
		rejectUpload(c, err)
		return
	}

	sessionID := c.PostForm("session_id")
	log.Info().Str("file", fileHeader.Filename).Int64("size", fileHeader.Size).Bool("session", sessionID != "").Msg("Received quiz request")

	res := s.gen.Generate(c.Request.Context(), quiz.Request{
		Document:  file,
		Size:      fileHeader.Size,
		Filename:  fileHeader.Filename,
		Prompt:    c.PostForm("prompt"),
		SessionID: sessionID,
	})
	c.JSON(http.StatusOK, newQuizResponse(res))
}

func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("name")
	if !generatedFileName.MatchString(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	dir := s.cfg.Output.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, name)
}

// validateUpload accepts only .pdf files whose declared or sniffed type is PDF.
func validateUpload(header *multipart.FileHeader, file multipart.File) error {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return errNotPDF
	}

	declared, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	switch declared {
	case pdfMIME:
		return nil
	case "", octetStreamMIME:
		detected, err := mimetype.DetectReader(io.NewSectionReader(file, 0, sniffLimit))
		if err != nil {
			return fmt.Errorf("read upload: %w", err)
		}
		if !detected.Is(pdfMIME) {
			return errNotPDFMIME
		}
		return nil
	default:
		return errNotPDFMIME
	}
}

func rejectUpload(c *gin.Context, err error) {
	log.Warn().Err(err).Msg("Rejected upload")
	c.JSON(http.StatusBadRequest, quizResponse{
		Quiz:  "Error: " + err.Error(),
		Files: map[string]string{},
	})
}

func newQuizResponse(res quiz.Result) quizResponse {
	resp := quizResponse{Quiz: res.Quiz, Files: map[string]string{}}
	if res.Failure != nil {
		return resp
	}

	html, err := helper.MarkdownToHTML(res.Quiz)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to render quiz as HTML")
	}
	resp.QuizHTML = html

	for format, path := range res.Exports {
		resp.Files[format] = filesPath + filepath.Base(path)
	}
	if res.PDFPath != "" {
		url := filesPath + filepath.Base(res.PDFPath)
		resp.PDFURL = &url
	}
	return resp
}
