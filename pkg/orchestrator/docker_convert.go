package orchestrator

import (
	"github.com/docker/docker/api/types/swarm"
)

// toSwarmServiceSpec translates the orchestrator-agnostic ServiceSpec
// into the concrete shape the Swarm API expects. This is the one place
// ServiceSpec's fields are interpreted against Swarm semantics.
func toSwarmServiceSpec(s ServiceSpec) swarm.ServiceSpec {
	spec := swarm.ServiceSpec{
		Annotations: swarm.Annotations{
			Name:   s.Name,
			Labels: s.Labels,
		},
		TaskTemplate: swarm.TaskSpec{
			ContainerSpec: &swarm.ContainerSpec{
				Image:   s.Image,
				Command: s.Command,
				Args:    s.Args,
				Env:     s.Env,
				Secrets: toSwarmSecretRefs(s.Secrets),
				Configs: toSwarmConfigRefs(s.Configs),
			},
			Networks:      toSwarmNetworkAttachments(s.Networks),
			Placement:     toSwarmPlacement(s.Constraints, s.Placement),
			RestartPolicy: restartPolicyFor(s.RestartOnCompletion),
		},
		EndpointSpec: &swarm.EndpointSpec{
			Ports: toSwarmPorts(s.Ports),
		},
	}

	switch s.Mode {
	case ServiceModeGlobal:
		spec.Mode = swarm.ServiceMode{Global: &swarm.GlobalService{}}
	default:
		replicated := &swarm.ReplicatedService{}
		if s.Replicas != nil {
			replicated.Replicas = s.Replicas
		}
		spec.Mode = swarm.ServiceMode{Replicated: replicated}
	}

	return spec
}

func restartPolicyFor(restartOnCompletion bool) *swarm.RestartPolicy {
	cond := swarm.RestartPolicyConditionAny
	if !restartOnCompletion {
		cond = swarm.RestartPolicyConditionNone
	}
	return &swarm.RestartPolicy{Condition: cond}
}

func toSwarmSecretRefs(refs []SecretRef) []*swarm.SecretReference {
	out := make([]*swarm.SecretReference, 0, len(refs))
	for _, r := range refs {
		out = append(out, &swarm.SecretReference{
			SecretName: r.SecretName,
			File: &swarm.SecretReferenceFileTarget{
				Name: r.Target,
				Mode: fileMode(r.Mode),
			},
		})
	}
	return out
}

func toSwarmConfigRefs(refs []ConfigRef) []*swarm.ConfigReference {
	out := make([]*swarm.ConfigReference, 0, len(refs))
	for _, r := range refs {
		out = append(out, &swarm.ConfigReference{
			ConfigName: r.ConfigName,
			File: &swarm.ConfigReferenceFileTarget{
				Name: r.Target,
				Mode: fileMode(r.Mode),
			},
		})
	}
	return out
}

func fileMode(m uint32) uint32 {
	if m == 0 {
		return 0o444
	}
	return m
}

func toSwarmNetworkAttachments(networks []string) []swarm.NetworkAttachmentConfig {
	out := make([]swarm.NetworkAttachmentConfig, 0, len(networks))
	for _, n := range networks {
		out = append(out, swarm.NetworkAttachmentConfig{Target: n})
	}
	return out
}

func toSwarmPlacement(constraints []string, prefs []PlacementPreference) *swarm.Placement {
	if len(constraints) == 0 && len(prefs) == 0 {
		return nil
	}
	p := &swarm.Placement{Constraints: constraints}
	for _, pref := range prefs {
		p.Preferences = append(p.Preferences, swarm.PlacementPreference{
			Spread: &swarm.SpreadOver{SpreadDescriptor: pref.Descriptor},
		})
	}
	return p
}

func toSwarmPorts(ports []PortSpec) []swarm.PortConfig {
	out := make([]swarm.PortConfig, 0, len(ports))
	for _, p := range ports {
		proto := swarm.PortConfigProtocol(p.Protocol)
		if proto == "" {
			proto = swarm.PortConfigProtocolTCP
		}
		mode := swarm.PortConfigPublishMode(p.PublishMode)
		if mode == "" {
			mode = swarm.PortConfigPublishModeIngress
		}
		out = append(out, swarm.PortConfig{
			Name:          p.Name,
			Protocol:      proto,
			TargetPort:    uint32(p.TargetPort),
			PublishedPort: uint32(p.PublishedPort),
			PublishMode:   mode,
		})
	}
	return out
}
