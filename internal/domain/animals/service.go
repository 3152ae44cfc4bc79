package animals

import (
	"context"
	"fmt"
	"strings"
	"time"

	auditport "cattle-dental-health/internal/ports/audit"
)

// Service cubre el CRUD administrativo de animales. El camino de sync nunca
// borra: el delete explícito vive solo acá.
type Service struct {
	repo  Repository
	audit auditport.Sink
	now   func() time.Time
}

func NewService(repo Repository, sink auditport.Sink) *Service {
	return &Service{
		repo:  repo,
		audit: sink,
		now:   time.Now,
	}
}

type CreateInput struct {
	TagCode        string
	Chip           string
	SisbovNumber   string
	Breed          string
	Farm           string
	Lot            string
	Client         string
	Location       string
	Category       string
	CoatColor      string
	Status         string
	Age            *int
	CurrentWeight  float64
	BodyScore      float64
	BirthDate      *time.Time
	CollectionDate *time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Animal, error) {
	if strings.TrimSpace(in.TagCode) == "" {
		return Animal{}, ErrInvalidInput
	}

	now := s.now()
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = "Ativo"
	}
	collection := in.CollectionDate
	if collection == nil {
		collection = &now
	}

	a := Animal{
		TagCode:        strings.TrimSpace(in.TagCode),
		Chip:           strings.TrimSpace(in.Chip),
		SisbovNumber:   strings.TrimSpace(in.SisbovNumber),
		Breed:          strings.TrimSpace(in.Breed),
		Farm:           strings.TrimSpace(in.Farm),
		Lot:            strings.TrimSpace(in.Lot),
		Client:         strings.TrimSpace(in.Client),
		Location:       strings.TrimSpace(in.Location),
		Category:       strings.TrimSpace(in.Category),
		CoatColor:      strings.TrimSpace(in.CoatColor),
		Status:         status,
		Age:            in.Age,
		CurrentWeight:  in.CurrentWeight,
		BodyScore:      in.BodyScore,
		BirthDate:      in.BirthDate,
		CollectionDate: collection,
		CreatedAt:      now,
	}

	if err := s.repo.Create(ctx, &a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Animal, error) {
	return s.repo.List(ctx)
}

// Detail es el perfil del animal con sus fotos y, si alguna foto tiene
// geotag, la primera coordenada encontrada.
type Detail struct {
	Animal      Animal
	Media       []Media
	Coordinates *Coordinates
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s *Service) GetDetail(ctx context.Context, id int64) (Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	media, err := s.repo.ListMedia(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Animal: a, Media: media}
	for _, m := range media {
		if m.Latitude != nil && m.Longitude != nil {
			d.Coordinates = &Coordinates{Lat: *m.Latitude, Lng: *m.Longitude}
			break
		}
	}
	return d, nil
}

type UpdateInput struct {
	TagCode       *string
	Chip          *string
	SisbovNumber  *string
	Breed         *string
	Farm          *string
	Lot           *string
	Client        *string
	Location      *string
	Category      *string
	CoatColor     *string
	Status        *string
	Age           *int
	CurrentWeight *float64
	BodyScore     *float64
	BirthDate     *time.Time
}

// Update aplica un PATCH real: nil = no tocar.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, userID, userName string) (Detail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setStr(&a.TagCode, in.TagCode)
	setStr(&a.Chip, in.Chip)
	setStr(&a.SisbovNumber, in.SisbovNumber)
	setStr(&a.Breed, in.Breed)
	setStr(&a.Farm, in.Farm)
	setStr(&a.Lot, in.Lot)
	setStr(&a.Client, in.Client)
	setStr(&a.Location, in.Location)
	setStr(&a.Category, in.Category)
	setStr(&a.CoatColor, in.CoatColor)
	setStr(&a.Status, in.Status)
	if in.Age != nil {
		a.Age = in.Age
	}
	if in.CurrentWeight != nil {
		a.CurrentWeight = *in.CurrentWeight
	}
	if in.BodyScore != nil {
		a.BodyScore = *in.BodyScore
	}
	if in.BirthDate != nil {
		a.BirthDate = in.BirthDate
	}

	if err := s.repo.Update(ctx, &a); err != nil {
		return Detail{}, err
	}

	s.audit.Log(ctx, "UPDATE", "Animal", fmt.Sprintf("%d", id), &userID,
		fmt.Sprintf("Usuário %s atualizou o animal: %s", userName, a.TagCode))

	return s.GetDetail(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64, userID, userName string) (Animal, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return Animal{}, err
	}

	s.audit.Log(ctx, "DELETE", "Animal", fmt.Sprintf("%d", id), &userID,
		fmt.Sprintf("Usuário %s EXCLUIU o animal: %s", userName, a.TagCode))

	return a, nil
}

func (s *Service) FarmOptions(ctx context.Context) ([]string, error) {
	return s.repo.DistinctFarms(ctx)
}

func (s *Service) ClientOptions(ctx context.Context) ([]string, error) {
	return s.repo.DistinctClients(ctx)
}
