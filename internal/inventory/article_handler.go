package inventory

import (
	"path/filepath"
	"strings"

	"stock-backend/internal/apperror"
	"stock-backend/internal/audit"
	"stock-backend/internal/httputil"
	"stock-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const entityArticle = "article"

func ListArticlesHandler(svc *ArticleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		articles, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(articles)
	}
}

func GetArticleHandler(svc *ArticleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		article, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(article)
	}
}

func GetArticleByCodeHandler(svc *ArticleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		article, err := svc.GetByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return err
		}
		return c.JSON(article)
	}
}

// GET /api/articles/search?term=
func SearchArticlesHandler(svc *ArticleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		articles, err := svc.Search(c.UserContext(), c.Query("term"))
		if err != nil {
			return err
		}
		return c.JSON(articles)
	}
}

func ListArticlesBySocieteHandler(svc *ArticleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		societeID, err := httputil.ParamID(c, "societeId")
		if err != nil {
			return err
		}
		articles, err := svc.ListBySociete(c.UserContext(), societeID)
		if err != nil {
			return err
		}
		return c.JSON(articles)
	}
}

func CreateArticleHandler(svc *ArticleService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ArticleInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		article, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityArticle, article.ID, models.AuditActionCreate,
			"Article créé: "+article.Code, nil, article)
		return c.Status(fiber.StatusCreated).JSON(article)
	}
}

func UpdateArticleHandler(svc *ArticleService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ArticleInput
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityArticle, id, models.AuditActionUpdate,
			"Article modifié: "+after.Code, before, after)
		return c.JSON(after)
	}
}

func DeleteArticleHandler(svc *ArticleService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParamID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityArticle, id, models.AuditActionDelete,
			"Article supprimé: "+deleted.Code, deleted, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/articles/import (multipart, field "file")
func ImportArticlesHandler(svc *ArticleService, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperror.NewValidation("Fichier manquant (champ 'file')")
		}
		if strings.ToLower(filepath.Ext(fh.Filename)) != ".xlsx" {
			return apperror.NewValidation("Seuls les fichiers .xlsx sont acceptés")
		}

		file, err := fh.Open()
		if err != nil {
			return apperror.NewValidation("Fichier illisible").WithCause(err)
		}
		defer file.Close()

		res, err := svc.ImportArticles(c.UserContext(), file)
		if err != nil {
			return err
		}

		audit.Record(c, auditSvc, entityArticle, 0, models.AuditActionCreate,
			"Import Excel: "+fh.Filename, nil, res)
		return c.JSON(res)
	}
}
