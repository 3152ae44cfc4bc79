package memory

import (
	"context"
	"sort"
	"strings"

	"cattle-dental-health/internal/domain/animals"
)

type AnimalsRepo struct {
	s *Store
}

func NewAnimalsRepo(s *Store) *AnimalsRepo {
	return &AnimalsRepo{s: s}
}

// InTx simula la transacción sobre copias de los maps: fn trabaja sobre el
// staging y el swap solo ocurre si devuelve nil.
func (r *AnimalsRepo) InTx(ctx context.Context, fn func(tx animals.Tx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := &animalsTx{
		animals:      cloneMap(r.s.animals),
		media:        cloneMap(r.s.media),
		nextAnimalID: r.s.nextAnimalID,
		nextMediaID:  r.s.nextMediaID,
	}

	if err := fn(tx); err != nil {
		return err
	}

	r.s.animals = tx.animals
	r.s.media = tx.media
	r.s.nextAnimalID = tx.nextAnimalID
	r.s.nextMediaID = tx.nextMediaID
	return nil
}

type animalsTx struct {
	animals      map[int64]animals.Animal
	media        map[int64]animals.Media
	nextAnimalID int64
	nextMediaID  int64
}

func (tx *animalsTx) FindBySisbov(ctx context.Context, sisbov string) (animals.Animal, error) {
	if strings.TrimSpace(sisbov) == "" {
		return animals.Animal{}, animals.ErrNotFound
	}
	for _, a := range tx.animals {
		if a.SisbovNumber == sisbov {
			return a, nil
		}
	}
	return animals.Animal{}, animals.ErrNotFound
}

func (tx *animalsTx) FindByChip(ctx context.Context, chip string) (animals.Animal, error) {
	if strings.TrimSpace(chip) == "" {
		return animals.Animal{}, animals.ErrNotFound
	}
	for _, a := range tx.animals {
		if a.Chip == chip {
			return a, nil
		}
	}
	return animals.Animal{}, animals.ErrNotFound
}

func (tx *animalsTx) SaveAnimal(ctx context.Context, a *animals.Animal) error {
	if a.ID == 0 {
		tx.nextAnimalID++
		a.ID = tx.nextAnimalID
		a.CreatedAt = nowIfZero(a.CreatedAt)
	}
	tx.animals[a.ID] = *a
	return nil
}

func (tx *animalsTx) HasMedia(ctx context.Context, animalID int64, originalLink string) (bool, error) {
	for _, m := range tx.media {
		if m.AnimalID == animalID && m.OriginalLink == originalLink {
			return true, nil
		}
	}
	return false, nil
}

func (tx *animalsTx) AddMedia(ctx context.Context, m *animals.Media) error {
	tx.nextMediaID++
	m.ID = tx.nextMediaID
	tx.media[m.ID] = *m
	return nil
}

func (r *AnimalsRepo) Create(ctx context.Context, a *animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextAnimalID++
	a.ID = r.s.nextAnimalID
	a.CreatedAt = nowIfZero(a.CreatedAt)
	r.s.animals[a.ID] = *a
	return nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a *animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[a.ID]; !ok {
		return animals.ErrNotFound
	}
	r.s.animals[a.ID] = *a
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *AnimalsRepo) GetByTag(ctx context.Context, tagCode string) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.animals {
		if a.TagCode == tagCode {
			return a, nil
		}
	}
	return animals.Animal{}, animals.ErrNotFound
}

func (r *AnimalsRepo) List(ctx context.Context) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0, len(r.s.animals))
	for _, a := range r.s.animals {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[id]; !ok {
		return animals.ErrNotFound
	}
	delete(r.s.animals, id)
	for mid, m := range r.s.media {
		if m.AnimalID == id {
			delete(r.s.media, mid)
		}
	}
	return nil
}

func (r *AnimalsRepo) ListMedia(ctx context.Context, animalID int64) ([]animals.Media, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.mediaOf(animalID), nil
}

// mediaOf asume que el caller ya tiene el lock.
func (s *Store) mediaOf(animalID int64) []animals.Media {
	out := make([]animals.Media, 0)
	for _, m := range s.media {
		if m.AnimalID == animalID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *AnimalsRepo) DistinctFarms(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.distinct(func(a animals.Animal) string { return a.Farm }), nil
}

func (r *AnimalsRepo) DistinctClients(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.distinct(func(a animals.Animal) string { return a.Client }), nil
}

func (r *AnimalsRepo) distinct(pick func(animals.Animal) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, a := range r.s.animals {
		v := strings.TrimSpace(pick(a))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
