package mappers

import (
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
)

// ProfileMapper handles the conversion between profiles and persistence models.
type ProfileMapper interface {
	ToModel(p *profile.Profile) *models.ProfileModel
	ToDomain(model *models.ProfileModel) *profile.Profile
	ToDomainList(list []models.ProfileModel) []*profile.Profile
}

type ProfileMapperImpl struct{}

func NewProfileMapper() ProfileMapper {
	return &ProfileMapperImpl{}
}

func (m *ProfileMapperImpl) ToModel(p *profile.Profile) *models.ProfileModel {
	return &models.ProfileModel{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      p.Role.String(),
		CreatedAt: biztime.ToMillis(p.CreatedAt),
		UpdatedAt: biztime.ToMillis(p.UpdatedAt),
	}
}

// ToDomain keeps stored role values as they are; an unrecognised role is not
// valid and never earns a redirect.
func (m *ProfileMapperImpl) ToDomain(model *models.ProfileModel) *profile.Profile {
	return &profile.Profile{
		ID:        model.ID,
		Email:     model.Email,
		FullName:  model.FullName,
		AvatarURL: model.AvatarURL,
		Role:      profile.Role(model.Role),
		CreatedAt: biztime.FromMillis(model.CreatedAt),
		UpdatedAt: biztime.FromMillis(model.UpdatedAt),
	}
}

func (m *ProfileMapperImpl) ToDomainList(list []models.ProfileModel) []*profile.Profile {
	out := make([]*profile.Profile, 0, len(list))
	for i := range list {
		out = append(out, m.ToDomain(&list[i]))
	}
	return out
}
