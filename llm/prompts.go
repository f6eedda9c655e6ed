package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/axaysd/PMM-Agent/model"
)

func validationPrompt(answer, question string, kind model.QuestionKind) string {
	return fmt.Sprintf(`You are a validator for user responses in a PMM Assistant conversational interface.

Question: %s
Question Type: %s
User Response: "%s"

Evaluate this response based on:
1. Is it relevant to the question asked?
2. Is it a meaningful, helpful response?
3. Does it provide useful information?

IMPORTANT: You must respond with EXACTLY one word:
- "VALID" if the response is relevant, meaningful, and helpful
- "INVALID" if the response is too generic, unhelpful, or meaningless

Note: Company names, business descriptions, and clear answers are VALID even if brief.

Response (VALID or INVALID only):`, question, kind, answer)
}

func answerOrDefault(answers map[string]string, id, fallback string) string {
	if v, ok := answers[id]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func planPrompt(answers map[string]string) string {
	companyName := answerOrDefault(answers, "company_name", "Your company")

	var context strings.Builder
	context.WriteString("Company Information:\n")
	fmt.Fprintf(&context, "- Company Name: %s\n", companyName)
	fmt.Fprintf(&context, "- Business Description: %s\n", answerOrDefault(answers, "company_description", "your business"))
	fmt.Fprintf(&context, "- Customer Description: %s\n", answerOrDefault(answers, "customer_description", "your customers"))
	fmt.Fprintf(&context, "- Positioning Experience: %s\n", answerOrDefault(answers, "positioning_experience", "positioning"))
	fmt.Fprintf(&context, "- Company Scope: %s", answerOrDefault(answers, "company_scope", "your company"))
	if product := answers["product_name"]; strings.TrimSpace(product) != "" {
		fmt.Fprintf(&context, "\n- Product Name: %s", product)
	}

	var steps strings.Builder
	for i, step := range model.WorkflowSteps {
		fmt.Fprintf(&steps, "%d. %s\n", i+1, step)
	}

	return fmt.Sprintf(`Based on the following information about %s, generate a personalized PMM (Positioning & Messaging) plan that outlines how we'll help them through our 11-step workflow.

%s

Create a brief, personalized plan that mentions all 11 steps of our PMM workflow:
%s
Make it conversational and specific to their business. Explain how each step will help them achieve their positioning and messaging goals.`,
		companyName, context.String(), steps.String())
}

// FallbackPlan is the deterministic plan used when the generator is
// unavailable. Step 1 still completes; only the wording is generic.
func FallbackPlan(answers map[string]string) string {
	companyName := answerOrDefault(answers, "company_name", "Your company")
	companyDescription := answerOrDefault(answers, "company_description", "your business")
	customerDescription := answerOrDefault(answers, "customer_description", "your customers")
	experience := answerOrDefault(answers, "positioning_experience", "positioning")
	scope := answerOrDefault(answers, "company_scope", "your company")

	scopeText := strings.ToLower(scope)
	if product := answers["product_name"]; strings.TrimSpace(product) != "" {
		scopeText = product + " specifically"
	}

	return fmt.Sprintf(`🎉 **Great! You've completed Step 1: Context Gathering & Planning**

Based on your responses about **%[1]s**, here's how I'll help you through our comprehensive PMM workflow:

**Your Personalized PMM Journey:**

**Step 2: Customer Understanding & Persona Development** - We'll dive deep into understanding your %[2]s to create detailed customer personas.

**Step 3: Stakeholder & Customer Interviews** - We'll gather insights from key stakeholders and customers to inform your positioning.

**Step 4: Category & Competitive Positioning** - We'll analyze your competitive landscape and define your market category.

**Step 5: Feature/Benefit Translation ("Product Legos")** - We'll translate your %[3]s features into compelling customer benefits.

**Step 6: Positioning Statement Creation** - We'll craft clear, compelling positioning statements for **%[1]s**.

**Step 7: Positioning Workshop Facilitation** - We'll facilitate workshops to refine and validate your positioning.

**Step 8: Messaging Framework & Brand Essence** - We'll develop your core messaging framework and brand essence.

**Step 9: Proof Points & Narrative** - We'll create supporting evidence and compelling narratives.

**Step 10: Asset Generation & Application** - We'll develop marketing assets and content.

**Step 11: Asset Inventory & Message Testing** - We'll test and optimize your messaging for maximum impact.

Since you're doing this %[4]s for %[5]s, we'll tailor each step to your specific needs and goals.`,
		companyName, customerDescription, companyDescription,
		strings.ToLower(experience), scopeText)
}

var stepContexts = map[int]string{
	1: `You are helping with Step 1: Context Gathering & Planning.

The user is answering questions about:
- Company name
- Company description
- Customer description
- Positioning experience (first time vs repositioning)
- Company scope (whole company vs specific segment)

Be conversational and encouraging. Ask follow-up questions if responses are unclear.`,
	2: `You are helping with Step 2: Customer Understanding & Persona Development.

The user has been asked to upload persona documents or indicate they don't have them.
If they mention uploading documents, acknowledge it and proceed with automated research.
If they say they don't have personas, provide the research todo list and ask if they want automated research.
If they want automated research, conduct competitor research to identify ICP, buyers, influencers, and users.

Focus on understanding the target customers in detail through:
- Document analysis (if uploaded)
- Automated competitor research
- Customer persona development
- ICP identification`,
	3: `You are helping with Step 3: Stakeholder & Customer Interviews.

Focus on gathering insights from stakeholders and customers. Ask about:
- Key stakeholders
- Interview insights
- Customer feedback
- Market research`,
	4: `You are helping with Step 4: Category & Competitive Positioning.

Focus on competitive landscape and market positioning. Ask about:
- Competitors
- Market category
- Differentiation
- Competitive advantages`,
	5: `You are helping with Step 5: Feature/Benefit Translation ("Product Legos").

Focus on translating features into benefits. Ask about:
- Key features
- Customer benefits
- Value propositions
- Product capabilities`,
	6: `You are helping with Step 6: Positioning Statement Creation.

Focus on creating clear positioning statements. Ask about:
- Target audience
- Market category
- Key benefit
- Proof points`,
	7: `You are helping with Step 7: Positioning Workshop Facilitation.

Focus on facilitating positioning workshops. Ask about:
- Workshop participants
- Key insights
- Decisions made
- Next steps`,
	8: `You are helping with Step 8: Messaging Framework & Brand Essence.

Focus on developing messaging frameworks. Ask about:
- Brand essence
- Key messages
- Tone and voice
- Messaging hierarchy`,
	9: `You are helping with Step 9: Proof Points & Narrative.

Focus on developing proof points and narratives. Ask about:
- Supporting evidence
- Customer stories
- Case studies
- Success metrics`,
	10: `You are helping with Step 10: Asset Generation & Application.

Focus on creating marketing assets. Ask about:
- Asset types needed
- Content requirements
- Distribution channels
- Asset specifications`,
	11: `You are helping with Step 11: Asset Inventory & Message Testing.

Focus on testing and optimizing messages. Ask about:
- Testing methods
- Performance metrics
- Optimization opportunities
- Final recommendations`,
}

func stepContext(step int, answers map[string]string) string {
	base, ok := stepContexts[step]
	if !ok {
		base = "You are helping with positioning and messaging."
	}
	if len(answers) == 0 {
		return base
	}

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nUser Context:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s: %s\n", id, answers[id])
	}
	return b.String()
}

func researchPrompt(answers map[string]string) string {
	return fmt.Sprintf(`You are a market research analyst conducting automated competitor research. Based on the following company information, research and identify their ICP, buyers, influencers, and users by analyzing competitor websites and market data.

Company: %s
Business: %s
Current Customers: %s

Conduct comprehensive research and provide detailed insights on:

1. **Ideal Customer Profile (ICP)**:
   - Demographics and firmographics
   - Industry verticals and company sizes
   - Technology stack and preferences
   - Pain points and challenges

2. **Buyer Personas**:
   - Decision makers vs end users
   - Roles and responsibilities
   - Buying journey stages
   - Decision criteria and influence factors

3. **Key Influencers**:
   - Industry thought leaders
   - Internal champions
   - Community advocates
   - Media and analyst relationships

4. **User Personas**:
   - End-user characteristics
   - Usage patterns and behaviors
   - Feature preferences
   - Success metrics

Format your response as a comprehensive research report with clear sections and actionable insights.`,
		answerOrDefault(answers, "company_name", "Unknown Company"),
		answerOrDefault(answers, "company_description", "Unknown business"),
		answerOrDefault(answers, "customer_description", "Unknown customers"))
}

// ResearchTodoList is the Step 2 manual research checklist offered before
// automated research.
const ResearchTodoList = `## 📋 **Customer Research Action Plan**

To identify your ICP, buyers, influencers, and users, here's what you need to do:

### 1. **Define Your Ideal Customer Profile (ICP)**
- Identify demographic characteristics (age, location, company size, industry)
- Determine firmographic details (revenue, employee count, technology stack)
- Understand psychographic traits (goals, challenges, pain points)

### 2. **Map Your Buyer Personas**
- Identify decision-makers vs. end-users
- Understand their roles, responsibilities, and influence levels
- Map their buying journey and decision criteria

### 3. **Identify Key Influencers**
- Find industry thought leaders and experts
- Identify internal champions and advocates
- Map influencer networks and communities

### 4. **Research User Personas**
- Understand end-user needs and behaviors
- Identify usage patterns and preferences
- Map user journey and touchpoints

### 5. **Conduct Market Research**
- Analyze competitor customer bases
- Study industry reports and surveys
- Gather insights from customer interviews

Would you like me to conduct automated competitor research to help identify your ICP, buyers, influencers, and users?`
