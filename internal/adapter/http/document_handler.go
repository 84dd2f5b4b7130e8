package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"loanease/internal/usecase/document"
)

type DocumentHandler struct{ uc *document.Usecase }

func NewDocumentHandler(uc *document.Usecase) *DocumentHandler { return &DocumentHandler{uc: uc} }

type uploadTokenView struct {
	ApplicationID          string `json:"application_id"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	DocumentRequestMessage string `json:"document_request_message"`
}

func (h *DocumentHandler) VerifyUploadToken(c echo.Context) error {
	a, err := h.uc.VerifyUploadToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	v := uploadTokenView{ApplicationID: a.PublicID, FirstName: a.FirstName, LastName: a.LastName}
	if a.DocumentRequestMessage != nil {
		v.DocumentRequestMessage = *a.DocumentRequestMessage
	}
	return c.JSON(http.StatusOK, v)
}

func (h *DocumentHandler) Upload(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return badRequest(c, "missing token")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing file")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	defer f.Close()

	doc, err := h.uc.Upload(c.Request().Context(), document.UploadInput{
		ApplicationID: c.Param("id"),
		Token:         token,
		Filename:      fh.Filename,
		ContentType:   fh.Header.Get(echo.HeaderContentType),
		Size:          fh.Size,
		Body:          f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) List(c echo.Context) error {
	docs, err := h.uc.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Download(c echo.Context) error {
	doc, rc, err := h.uc.Open(c.Request().Context(), c.Param("id"), c.Param("doc_id"))
	if err != nil {
		return writeError(c, err)
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprint(doc.Size))
	return c.Stream(http.StatusOK, doc.ContentType, io.Reader(rc))
}
