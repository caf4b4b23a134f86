package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// UserService covers the admin-side user management operations.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

type ListUsersInput struct {
	Role     string
	IsActive *bool
	Page     int
	Limit    int
	Sort     string
}

func (s *UserService) List(ctx context.Context, in ListUsersInput) ([]models.User, httpx.Pagination, repo.UserStats, error) {
	var errs fieldErrors
	if in.Role != "" && !models.ValidRole(in.Role) {
		errs.add("role", "Rôle invalide")
	}
	if err := errs.err(); err != nil {
		return nil, httpx.Pagination{}, repo.UserStats{}, err
	}

	page, limit := normalizePage(in.Page, in.Limit, 20, 100)
	users, total, err := s.users.List(ctx, repo.UserFilter{
		Role:     in.Role,
		IsActive: in.IsActive,
		Page:     page,
		Limit:    limit,
		Sort:     in.Sort,
	})
	if err != nil {
		return nil, httpx.Pagination{}, repo.UserStats{}, storeErr(err)
	}

	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, httpx.Pagination{}, repo.UserStats{}, storeErr(err)
	}

	for i := range users {
		users[i] = users[i].PublicProfile()
	}
	return users, httpx.NewPagination(page, limit, total), stats, nil
}

// Get returns one user. Admins can read anyone; everyone else only
// themselves.
func (s *UserService) Get(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.ID != objID {
		return nil, httpx.NewAuthorizationError("Accès refusé")
	}

	user, err := s.users.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, httpx.NewNotFoundError("Utilisateur non trouvé")
	}
	public := user.PublicProfile()
	return &public, nil
}

type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

// Create is the admin variant of registration: the role is selectable.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	var errs fieldErrors
	if !lengthBetween(in.Name, 2, 50) {
		errs.add("name", "Le nom doit contenir entre 2 et 50 caractères")
	}
	if !models.ValidEmail(in.Email) {
		errs.add("email", "Veuillez entrer un email valide")
	}
	if !models.ValidPassword(in.Password) {
		errs.add("password", "Le mot de passe doit contenir au moins 6 caractères, une minuscule, une majuscule et un chiffre")
	}
	if in.Role != "" && !models.ValidRole(in.Role) {
		errs.add("role", "Rôle invalide")
	}
	if in.Company != "" && !lengthBetween(in.Company, 0, 100) {
		errs.add("company", "Le nom de l'entreprise ne peut pas dépasser 100 caractères")
	}
	if in.Phone != "" && !models.ValidPhone(in.Phone) {
		errs.add("phone", "Veuillez entrer un numéro de téléphone valide")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, httpx.NewConflictError("Un utilisateur avec cet email existe déjà")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, httpx.NewStorageError("Erreur serveur interne")
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     role,
		Company:  in.Company,
		Phone:    in.Phone,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeErr(err)
	}
	public := user.PublicProfile()
	return &public, nil
}

type UpdateUserInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Role    *string `json:"role"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
}

// Update edits a user. Admins can edit anyone and change roles; a user can
// only edit their own record and the role field is ignored for them.
func (s *UserService) Update(ctx context.Context, actor *models.User, id string, in UpdateUserInput) (*models.User, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.ID != objID {
		return nil, httpx.NewAuthorizationError("Accès refusé")
	}

	var errs fieldErrors
	if in.Name != nil && !lengthBetween(*in.Name, 2, 50) {
		errs.add("name", "Le nom doit contenir entre 2 et 50 caractères")
	}
	if in.Email != nil && !models.ValidEmail(normalizeEmail(*in.Email)) {
		errs.add("email", "Veuillez entrer un email valide")
	}
	if in.Role != nil && !models.ValidRole(*in.Role) {
		errs.add("role", "Rôle invalide")
	}
	if in.Company != nil && !lengthBetween(*in.Company, 0, 100) {
		errs.add("company", "Le nom de l'entreprise ne peut pas dépasser 100 caractères")
	}
	if in.Phone != nil && *in.Phone != "" && !models.ValidPhone(*in.Phone) {
		errs.add("phone", "Veuillez entrer un numéro de téléphone valide")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, httpx.NewNotFoundError("Utilisateur non trouvé")
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			existing, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, storeErr(err)
			}
			if existing != nil && existing.ID != user.ID {
				return nil, httpx.NewConflictError("Un utilisateur avec cet email existe déjà")
			}
			user.Email = email
		}
	}
	if in.Role != nil && actor.Role == models.RoleAdmin {
		user.Role = *in.Role
	}
	if in.Company != nil {
		user.Company = *in.Company
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err)
	}
	public := user.PublicProfile()
	return &public, nil
}

// Deactivate soft-deletes a user. Admins cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, actor *models.User, id string) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, objID)
	if err != nil {
		return storeErr(err)
	}
	if user == nil {
		return httpx.NewNotFoundError("Utilisateur non trouvé")
	}
	if user.ID == actor.ID {
		return httpx.NewConflictError("Vous ne pouvez pas désactiver votre propre compte")
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *UserService) Activate(ctx context.Context, id string) (*models.User, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, httpx.NewNotFoundError("Utilisateur non trouvé")
	}

	user.IsActive = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err)
	}
	public := user.PublicProfile()
	return &public, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		var errs fieldErrors
		errs.add("role", "Rôle invalide")
		return nil, errs.err()
	}

	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, httpx.NewNotFoundError("Utilisateur non trouvé")
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err)
	}
	public := user.PublicProfile()
	return &public, nil
}

func (s *UserService) Search(ctx context.Context, q string, page, limit int) ([]models.User, httpx.Pagination, error) {
	if !lengthBetween(q, 2, 200) {
		var errs fieldErrors
		errs.add("q", "La recherche doit contenir au moins 2 caractères")
		return nil, httpx.Pagination{}, errs.err()
	}

	page, limit = normalizePage(page, limit, 20, 50)
	users, total, err := s.users.Search(ctx, q, page, limit)
	if err != nil {
		return nil, httpx.Pagination{}, storeErr(err)
	}
	for i := range users {
		users[i] = users[i].PublicProfile()
	}
	return users, httpx.NewPagination(page, limit, total), nil
}

func (s *UserService) Stats(ctx context.Context) (repo.UserStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return repo.UserStats{}, storeErr(err)
	}
	return stats, nil
}

// lookupRef resolves a weak user reference for response population. Missing
// users (deleted accounts) resolve to nil rather than an error.
func lookupRef(ctx context.Context, users UserStore, id primitive.ObjectID) *models.UserRef {
	if id.IsZero() {
		return nil
	}
	user, err := users.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil
	}
	ref := user.Ref()
	return &ref
}

// normalizePage clamps page/limit to sane bounds.
func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
