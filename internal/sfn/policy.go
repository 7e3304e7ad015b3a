package sfn

import "fmt"

// PolicyStatement is an IAM statement the state machine role needs for a task.
type PolicyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

func allow(resources []string, actions ...string) PolicyStatement {
	return PolicyStatement{Effect: "Allow", Action: actions, Resource: resources}
}

// eventsRule is the managed EventBridge rule the engine uses to observe a
// .sync integration.
func eventsRule(env Env, name string) string {
	env = env.WithDefaults()
	return fmt.Sprintf("arn:%s:events:%s:%s:rule/%s", env.Partition, env.Region, env.Account, name)
}

func syncRulePolicy(env Env, rule string) PolicyStatement {
	return allow([]string{eventsRule(env, rule)}, "events:PutTargets", "events:PutRule", "events:DescribeRule")
}

func clusterARN(env Env) string {
	env = env.WithDefaults()
	return fmt.Sprintf("arn:%s:elasticmapreduce:%s:%s:cluster/*", env.Partition, env.Region, env.Account)
}

// PolicyFor merges the statements of tasks, dropping exact duplicates while
// keeping first-seen order.
func PolicyFor(tasks ...Task) PolicyDocument {
	doc := PolicyDocument{Version: "2012-10-17"}
	seen := map[string]bool{}
	for _, t := range tasks {
		for _, s := range t.policy {
			key := fmt.Sprint(s.Effect, s.Action, s.Resource)
			if seen[key] {
				continue
			}
			seen[key] = true
			doc.Statement = append(doc.Statement, s)
		}
	}
	return doc
}

// Actions lists every (action, resource) pair allowed by the document.
func (d PolicyDocument) Actions() [][2]string {
	var out [][2]string
	for _, s := range d.Statement {
		if s.Effect != "Allow" {
			continue
		}
		for _, a := range s.Action {
			for _, r := range s.Resource {
				out = append(out, [2]string{a, r})
			}
		}
	}
	return out
}
