package server

import (
	"showcase/internal/repository"
	"showcase/internal/service"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProjectListResponse is a page of approved projects plus the review backlog size.
type ProjectListResponse struct {
	*repository.ProjectPage
	PendingProjectsCount int64 `json:"pending_projects_count"`
}

// ListProjects handles GET /api/projects
// @Summary List approved projects
// @Description Paginated listing of approved projects with tag, tech stack and text filters
// @Tags projects
// @Produce json
// @Param tags query string false "Comma separated tag slugs (any match)"
// @Param tech query string false "Comma separated tech stack terms (all must match)"
// @Param search query string false "Substring of title or description"
// @Param sort_by query string false "created_at, updated_at, title or monthly_visitors"
// @Param sort_dir query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(20)
// @Success 200 {object} ProjectListResponse
// @Router /projects [get]
func (s *Server) ListProjects(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, err := s.projectService.ListApproved(ctx, repository.ProjectFilter{
		TagSlugs:  splitList(c.Query("tags")),
		TechStack: splitList(c.Query("tech")),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortDir:   c.Query("sort_dir"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", repository.DefaultPerPage),
	})
	if err != nil {
		return s.respond(c, err)
	}
	pending, err := s.projectService.CountPending(ctx)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(ProjectListResponse{ProjectPage: page, PendingProjectsCount: pending})
}

// ListFeaturedProjects handles GET /api/projects/featured
func (s *Server) ListFeaturedProjects(c *fiber.Ctx) error {
	projects, err := s.projectService.ListFeatured(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(projects)
}

// ListTrendingProjects handles GET /api/projects/trending
func (s *Server) ListTrendingProjects(c *fiber.Ctx) error {
	projects, err := s.projectService.ListTrending(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(projects)
}

// GetProject handles GET /api/projects/:id
// @Summary Get a project
// @Description Approved projects are public; owners and admins also see their other projects
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	viewer := repository.Viewer{}
	if user := currentUser(c); user != nil {
		viewer = repository.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin()}
	}
	project, err := s.projectService.GetVisible(c.UserContext(), id, viewer)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// ListMyProjects handles GET /api/my/projects
func (s *Server) ListMyProjects(c *fiber.Ctx) error {
	projects, err := s.projectService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(projects)
}

// GetMyProject handles GET /api/my/projects/:id
func (s *Server) GetMyProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.GetOwned(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// CreateProject handles POST /api/my/projects
// @Summary Submit a project
// @Description Creates a pending project. Without competition_id it joins the latest open competition, if any.
// @Tags projects
// @Accept json
// @Produce json
// @Param request body validation.CreateProjectRequest true "Project"
// @Success 201 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req validation.CreateProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	project, err := s.projectService.Create(c.UserContext(), service.CreateProjectInput{
		OwnerID:         currentUserID(c),
		WebsiteURL:      req.WebsiteURL,
		Title:           req.Title,
		Tagline:         req.Tagline,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		GithubURL:       req.GithubURL,
		DemoURL:         req.DemoURL,
		TechStack:       req.TechStack,
		TagIDs:          req.TagIDs,
		CompetitionID:   req.CompetitionID,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// UpdateProject handles PUT /api/my/projects/:id
// @Summary Update a project
// @Description Omitted tag_ids clears the tags. A rejected project goes back to pending.
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body validation.UpdateProjectRequest true "Project"
// @Success 200 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/projects/{id} [put]
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.UpdateProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	project, err := s.projectService.Update(c.UserContext(), service.UpdateProjectInput{
		ProjectID:       id,
		OwnerID:         currentUserID(c),
		WebsiteURL:      req.WebsiteURL,
		Title:           req.Title,
		Tagline:         req.Tagline,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		GithubURL:       req.GithubURL,
		DemoURL:         req.DemoURL,
		TechStack:       req.TechStack,
		TagIDs:          req.TagIDs,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// DeleteProject handles DELETE /api/my/projects/:id
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.projectService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResubmitProject handles POST /api/my/projects/:id/resubmit
func (s *Server) ResubmitProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.Resubmit(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// ApproveProject handles POST /api/admin/projects/:id/approve
func (s *Server) ApproveProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.Approve(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// RejectProject handles POST /api/admin/projects/:id/reject
func (s *Server) RejectProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.RejectProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	project, err := s.projectService.Reject(c.UserContext(), id, req.Reason)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// IceBoxProject handles POST /api/admin/projects/:id/ice-box
func (s *Server) IceBoxProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.IceBox(c.UserContext(), id)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// FeatureProject handles POST /api/admin/projects/:id/feature
func (s *Server) FeatureProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.FeatureProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	project, err := s.projectService.SetFeatured(c.UserContext(), id, *req.Featured)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}
