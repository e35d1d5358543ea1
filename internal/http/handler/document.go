package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"supplierportal/internal/service"
)

// UploadFile stores one file for an application's slot
// (multipart/form-data, field name: file).
//
//	@Summary	Upload a file into a slot
//	@Tags		documents
//	@Accept		mpfd
//	@Produce	json
//	@Param		id		path		string	true	"Application ID"
//	@Param		slot	path		string	true	"File slot"
//	@Param		file	formData	file	true	"File"
//	@Success	201		{object}	model.Document
//	@Failure	400		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications/{id}/files/{slot} [post]
func UploadFile(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Upload(c.UserContext(), actor, service.UploadInput{
			ApplicationID: id,
			Slot:          c.Params("slot"),
			Filename:      fh.Filename,
			ContentType:   ct,
			Size:          fh.Size,
			Reader:        f,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments lists an application's documents with limit & offset.
//
//	@Summary	List an application's documents
//	@Tags		documents
//	@Produce	json
//	@Param		id		path		string	true	"Application ID"
//	@Param		limit	query		int		false	"Page size"	default(10)
//	@Param		offset	query		int		false	"Offset"	default(0)
//	@Success	200		{object}	service.DocumentListResult
//	@Security	BearerAuth
//	@Router		/applications/{id}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		limit, offset, code := pageParams(c)
		if code != "" {
			return writeError(c, fiber.StatusBadRequest, code, "invalid pagination parameter")
		}
		res, err := svc.ListByApplication(c.UserContext(), actor, id, limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns metadata and a presigned download URL.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	service.DocumentDownload
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams a document's bytes through the API.
//
//	@Summary	Download a document
//	@Tags		documents
//	@Produce	octet-stream
//	@Param		id	path	string	true	"Document ID"
//	@Success	200
//	@Security	BearerAuth
//	@Router		/documents/{id}/content [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, doc, err := svc.Open(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+strconv.Quote(doc.OriginalName))
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, int(doc.Size))
	}
}

// DeleteDocument removes a document from a draft.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Param		id	path	string	true	"Document ID"
//	@Success	204
//	@Failure	403	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
