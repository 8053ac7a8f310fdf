// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runtime

import (
	"path"
	"strings"

	"github.com/distribution/reference"
)

// DefaultRegistries are the registries platform images are published to.
var DefaultRegistries = []string{"docker.whatsapp.biz"}

// DefaultRoles maps the last path component of a platform image to its role.
var DefaultRoles = map[string]Role{
	"coreapp": RoleGeneric | RoleCore,
	"web":     RoleGeneric | RoleWeb,
}

// Classifier decides which containers belong to the platform and what role
// each one plays, based on the container image reference.
type Classifier struct {
	// Registries lists managed registry hosts. Images from any other
	// registry are not managed.
	Registries []string

	// Roles maps an image base name to a role. Managed images with an
	// unlisted base name are RoleGeneric.
	Roles map[string]Role
}

// NewClassifier returns a Classifier with the platform defaults.
func NewClassifier() *Classifier {
	return &Classifier{
		Registries: DefaultRegistries,
		Roles:      DefaultRoles,
	}
}

// Classify returns the role of image and whether it is a managed image.
func (c *Classifier) Classify(image string) (Role, bool) {
	named, err := reference.ParseNormalizedNamed(strings.TrimSpace(image))
	if err != nil {
		return 0, false
	}

	domain := reference.Domain(named)
	managed := false
	for _, r := range c.Registries {
		if strings.EqualFold(r, domain) {
			managed = true
			break
		}
	}
	if !managed {
		return 0, false
	}

	base := path.Base(reference.Path(named))
	if role, ok := c.Roles[base]; ok {
		return role | RoleGeneric, true
	}
	return RoleGeneric, true
}
